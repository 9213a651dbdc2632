package usecase_test

import (
	"context"

	"github.com/m-mizutani/gollem"

	"github.com/neuro86/neuro86/pkg/domain/model"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

// validTimelineJSON is the default extraction response used by the mocks
const validTimelineJSON = `{
  "patient_details": {"age": null},
  "events": [
    {"phase": "diagnosis", "type": "imaging", "date": "2020-10-02", "desc": ["MRI revealed a meningioma"], "test_type": "MRI"},
    {"phase": "surgery", "type": "surgery", "date": "2020-11-19", "desc": ["Craniotomy"], "surgery_type": "craniotomy"}
  ]
}`

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{validTimelineJSON}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn        func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	vec := make([]float64, dimension)
	for i := range vec {
		vec[i] = 0.01
	}
	return [][]float64{vec}, nil
}

// testVector returns an embedding of the configured dimension with a single
// distinguishing component
func testVector(hot int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[hot] = 1.0
	return v
}
