package usecase

import (
	"context"

	"github.com/neuro86/neuro86/pkg/domain/interfaces"
	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

const (
	// defaultSimilarLimit is the number of similar stories surfaced to a user
	defaultSimilarLimit = 5

	// overfetchMargin pads the nearest-neighbor query so that filtering out
	// the caller's own stories still leaves enough candidates
	overfetchMargin = 5
)

// SimilarUseCase serves the "stories like mine" read path. Results are
// supplementary: any failure degrades to an empty list instead of an error so
// the surrounding page never breaks on a search hiccup.
type SimilarUseCase struct {
	repo  interfaces.Repository
	limit int
}

func NewSimilarUseCase(repo interfaces.Repository) *SimilarUseCase {
	return &SimilarUseCase{
		repo:  repo,
		limit: defaultSimilarLimit,
	}
}

// FindForUser returns stories from other users nearest to the caller's most
// recent story. A user without stories, an empty store, and a failed query
// all yield an empty list.
func (uc *SimilarUseCase) FindForUser(ctx context.Context, userID types.UserID) []*model.SimilarStory {
	logger := logging.From(ctx)

	own, err := uc.repo.Story().ListByUser(ctx, userID)
	if err != nil {
		logger.Warn("failed to list own stories for similarity query", "error", err, "user_id", userID)
		return []*model.SimilarStory{}
	}
	if len(own) == 0 {
		return []*model.SimilarStory{}
	}

	ownIDs := make(map[types.StoryID]bool, len(own))
	for _, s := range own {
		ownIDs[s.ID] = true
	}

	// Newest story is the reference; overfetch to survive self-filtering
	reference := own[0]
	candidates, err := uc.repo.Story().FindByEmbedding(ctx, reference.Embedding, uc.limit+overfetchMargin)
	if err != nil {
		logger.Warn("similarity query failed", "error", err, "user_id", userID)
		return []*model.SimilarStory{}
	}

	results := make([]*model.SimilarStory, 0, uc.limit)
	for _, c := range candidates {
		if ownIDs[c.Story.ID] {
			continue
		}
		results = append(results, c)
		if len(results) == uc.limit {
			break
		}
	}

	return results
}
