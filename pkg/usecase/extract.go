package usecase

import (
	"context"
	_ "embed"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/utils/jsonx"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

//go:embed prompt/timeline_system.md
var timelineSystemPrompt string

// extractTimeline converts a narrative into a structured timeline with a
// single model call. A model-call failure is a hard error; a response that
// contains no parseable JSON object degrades to an empty timeline so that a
// chatty model never blocks the pipeline.
func (uc *StoryUseCase) extractTimeline(ctx context.Context, text string) (*model.TimelineDocument, error) {
	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(timelineResponseSchema()),
		gollem.WithSessionSystemPrompt(timelineSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrExtractionFailed, "failed to create LLM session", goerr.V("cause", err))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(text))
	if err != nil {
		return nil, goerr.Wrap(ErrExtractionFailed, "model call failed", goerr.V("cause", err))
	}

	raw := strings.Join(resp.Texts, "\n")

	var doc model.TimelineDocument
	if !jsonx.ExtractObject(raw, &doc) {
		logging.From(ctx).Warn("extraction response contained no JSON object, using empty timeline",
			"response_len", len(raw))
		return model.EmptyTimeline(), nil
	}
	if doc.Events == nil {
		doc.Events = []model.TimelineEvent{}
	}

	return &doc, nil
}

// timelineResponseSchema mirrors the shape described in the system prompt for
// providers that support structured output
func timelineResponseSchema() *gollem.Parameter {
	eventSchema := &gollem.Parameter{
		Type: gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"phase": {
				Type:        gollem.TypeString,
				Description: "Lifecycle stage such as pre-diagnosis, diagnosis, surgery or follow-up",
				Required:    true,
			},
			"type": {
				Type:        gollem.TypeString,
				Description: "Free-text event category",
				Required:    true,
			},
			"date": {
				Type:        gollem.TypeString,
				Description: "ISO date (YYYY-MM-DD), omitted when unknown",
			},
			"desc": {
				Type:        gollem.TypeArray,
				Description: "Free-text descriptions of the event",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			},
			"symptoms": {
				Type:  gollem.TypeArray,
				Items: &gollem.Parameter{Type: gollem.TypeString},
			},
			"drug_name":    {Type: gollem.TypeString},
			"test_type":    {Type: gollem.TypeString},
			"surgery_type": {Type: gollem.TypeString},
			"surgery_site": {Type: gollem.TypeString},
			"outcome":      {Type: gollem.TypeString},
		},
	}

	return &gollem.Parameter{
		Title:       "TimelineDocument",
		Description: "Structured medical timeline extracted from a patient narrative",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"patient_details": {
				Type: gollem.TypeObject,
				Properties: map[string]*gollem.Parameter{
					"id":  {Type: gollem.TypeString},
					"age": {Type: gollem.TypeInteger},
					"sex": {Type: gollem.TypeString},
				},
			},
			"events": {
				Type:        gollem.TypeArray,
				Description: "Timeline events in extraction order",
				Items:       eventSchema,
				Required:    true,
			},
		},
	}
}
