package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/domain/model"
)

// generateEmbedding converts the narrative into the fixed-length vector used
// for similarity search. A story is never persisted without one, so any
// failure here is hard.
func (uc *StoryUseCase) generateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := uc.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(ErrEmbeddingFailed, "embedding call failed", goerr.V("cause", err))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(ErrEmbeddingFailed, "no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}

	return result, nil
}
