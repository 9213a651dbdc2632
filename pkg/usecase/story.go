package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"golang.org/x/sync/errgroup"

	"github.com/neuro86/neuro86/pkg/domain/interfaces"
	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/utils/async"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// pipelineTimeout bounds the derivation fan-out for one submission. Each of
// the three calls is a single round trip to a model API.
const pipelineTimeout = 90 * time.Second

// StoryUseCase owns the narrative pipeline: derive timeline, embedding and
// title from a submitted text, persist the story, and keep the user's cached
// combined timeline in sync.
type StoryUseCase struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient
}

func NewStoryUseCase(repo interfaces.Repository, llmClient gollem.LLMClient) *StoryUseCase {
	return &StoryUseCase{
		repo:      repo,
		llmClient: llmClient,
	}
}

// derived holds the outputs of the derivation fan-out
type derived struct {
	timeline  *model.TimelineDocument
	embedding []float32
	title     string
}

// derive runs the three model calls for one narrative concurrently. Timeline
// and embedding failures abort the pipeline; title failure falls back inside
// generateTitle and never surfaces here.
func (uc *StoryUseCase) derive(ctx context.Context, text string) (*derived, error) {
	ctx, cancel := context.WithTimeout(ctx, pipelineTimeout)
	defer cancel()

	var d derived
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		timeline, err := uc.extractTimeline(ctx, text)
		if err != nil {
			return err
		}
		d.timeline = timeline
		return nil
	})
	eg.Go(func() error {
		embedding, err := uc.generateEmbedding(ctx, text)
		if err != nil {
			return err
		}
		d.embedding = embedding
		return nil
	})
	eg.Go(func() error {
		d.title = uc.generateTitle(ctx, text)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &d, nil
}

// Submit runs the full pipeline for a new narrative. The story is persisted
// only after every required derived field is available, so a pipeline failure
// never leaves a partial record.
func (uc *StoryUseCase) Submit(ctx context.Context, userID types.UserID, text string) (*model.Story, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrEmptyNarrative, "empty submission")
	}

	d, err := uc.derive(ctx, text)
	if err != nil {
		return nil, err
	}

	story, err := uc.repo.Story().Create(ctx, &model.Story{
		UserID:    userID,
		Title:     d.title,
		RawText:   text,
		Timeline:  d.timeline,
		Embedding: d.embedding,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to persist story", goerr.V("user_id", userID))
	}

	uc.refreshCachedTimelineAsync(ctx, userID)

	return story, nil
}

// Edit replaces a story's narrative and regenerates its derived fields so the
// stored timeline and embedding never go stale
func (uc *StoryUseCase) Edit(ctx context.Context, userID types.UserID, id types.StoryID, text string) (*model.Story, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrEmptyNarrative, "empty submission")
	}

	current, err := uc.repo.Story().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrStoryNotFound, "story not found", goerr.V("story_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get story", goerr.V("story_id", id))
	}
	if current.UserID != userID {
		// A story owned by someone else is indistinguishable from a missing one
		return nil, goerr.Wrap(ErrStoryNotFound, "story not found", goerr.V("story_id", id))
	}

	d, err := uc.derive(ctx, text)
	if err != nil {
		return nil, err
	}

	current.RawText = text
	current.Title = d.title
	current.Timeline = d.timeline
	current.Embedding = d.embedding

	updated, err := uc.repo.Story().Update(ctx, userID, current)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrStoryNotFound, "story not found", goerr.V("story_id", id))
		}
		return nil, goerr.Wrap(err, "failed to update story", goerr.V("story_id", id))
	}

	uc.refreshCachedTimelineAsync(ctx, userID)

	return updated, nil
}

// List returns the user's stories, newest first
func (uc *StoryUseCase) List(ctx context.Context, userID types.UserID) ([]*model.Story, error) {
	stories, err := uc.repo.Story().ListByUser(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list stories", goerr.V("user_id", userID))
	}
	return stories, nil
}

// HasStories reports whether the user has at least one story
func (uc *StoryUseCase) HasStories(ctx context.Context, userID types.UserID) (bool, error) {
	stories, err := uc.repo.Story().ListByUser(ctx, userID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to list stories", goerr.V("user_id", userID))
	}
	return len(stories) > 0, nil
}

// Delete removes one story. The cached combined timeline is recomputed in the
// background from the remaining stories.
func (uc *StoryUseCase) Delete(ctx context.Context, userID types.UserID, id types.StoryID) error {
	if err := uc.repo.Story().Delete(ctx, userID, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrStoryNotFound, "story not found", goerr.V("story_id", id))
		}
		return goerr.Wrap(err, "failed to delete story", goerr.V("story_id", id))
	}

	uc.refreshCachedTimelineAsync(ctx, userID)

	return nil
}

// DeleteAll removes every story of the user and clears the cached timeline
// synchronously so a subsequent read never serves stale derived data
func (uc *StoryUseCase) DeleteAll(ctx context.Context, userID types.UserID) error {
	if err := uc.repo.Story().DeleteByUser(ctx, userID); err != nil {
		return goerr.Wrap(err, "failed to delete stories", goerr.V("user_id", userID))
	}

	if err := uc.repo.User().UpdateTimeline(ctx, userID, nil); err != nil {
		return goerr.Wrap(err, "failed to clear cached timeline", goerr.V("user_id", userID))
	}

	return nil
}

// Timeline returns the user's combined timeline. The cached copy is served
// when present; otherwise it is recomputed from the stored narratives and
// cached for the next read.
func (uc *StoryUseCase) Timeline(ctx context.Context, userID types.UserID) (*model.TimelineDocument, error) {
	user, err := uc.repo.User().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrUserNotFound, "user not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("user_id", userID))
	}
	if user.Timeline != nil {
		return user.Timeline, nil
	}

	stories, err := uc.repo.Story().ListByUser(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list stories", goerr.V("user_id", userID))
	}
	if len(stories) == 0 {
		return model.EmptyTimeline(), nil
	}

	timeline, err := uc.extractTimeline(ctx, model.CombineNarratives(stories))
	if err != nil {
		return nil, err
	}

	if err := uc.repo.User().UpdateTimeline(ctx, userID, timeline); err != nil {
		// Serve the fresh timeline anyway; the cache catches up next time
		logging.From(ctx).Warn("failed to cache timeline", "error", err, "user_id", userID)
	}

	return timeline, nil
}

// refreshCachedTimelineAsync recomputes the user's combined timeline in the
// background after a story mutation. Failures only delay the refresh: the
// next Timeline read recomputes lazily from the stored narratives.
func (uc *StoryUseCase) refreshCachedTimelineAsync(ctx context.Context, userID types.UserID) {
	async.Dispatch(ctx, func(ctx context.Context) error {
		stories, err := uc.repo.Story().ListByUser(ctx, userID)
		if err != nil {
			return goerr.Wrap(err, "failed to list stories for timeline refresh", goerr.V("user_id", userID))
		}
		if len(stories) == 0 {
			return uc.repo.User().UpdateTimeline(ctx, userID, nil)
		}

		timeline, err := uc.extractTimeline(ctx, model.CombineNarratives(stories))
		if err != nil {
			return err
		}

		return uc.repo.User().UpdateTimeline(ctx, userID, timeline)
	})
}
