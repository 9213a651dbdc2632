package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/gollem"

	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// FallbackStoryTitle is used whenever title generation fails. Titles are
// cosmetic and must never block story creation.
const FallbackStoryTitle = "My Meningioma Journey"

const titleSystemPrompt = `You write short titles for patient stories about meningioma. Given a narrative, respond with a descriptive title of at most ten words. Output only the title, with no quotes and no explanation.`

// generateTitle produces a short label for the narrative. Any failure is
// absorbed into the fallback title.
func (uc *StoryUseCase) generateTitle(ctx context.Context, text string) string {
	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(titleSystemPrompt),
	)
	if err != nil {
		logging.From(ctx).Warn("failed to create title session, using fallback", "error", err)
		return FallbackStoryTitle
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(text))
	if err != nil {
		logging.From(ctx).Warn("title generation failed, using fallback", "error", err)
		return FallbackStoryTitle
	}

	title := strings.TrimSpace(strings.Join(resp.Texts, " "))
	title = strings.Trim(title, `"`)
	if title == "" {
		return FallbackStoryTitle
	}

	return title
}
