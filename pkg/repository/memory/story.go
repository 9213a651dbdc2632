package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
)

type storyRepository struct {
	mu      sync.RWMutex
	stories map[types.StoryID]*model.Story
}

func newStoryRepository() *storyRepository {
	return &storyRepository{
		stories: make(map[types.StoryID]*model.Story),
	}
}

// copyStory creates a deep copy of a story
func copyStory(s *model.Story) *model.Story {
	copied := *s
	copied.Timeline = copyTimeline(s.Timeline)
	if s.Embedding != nil {
		copied.Embedding = make([]float32, len(s.Embedding))
		copy(copied.Embedding, s.Embedding)
	}
	return &copied
}

func (r *storyRepository) Create(ctx context.Context, story *model.Story) (*model.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyStory(story)
	if created.ID == "" {
		created.ID = types.NewStoryID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.stories[created.ID] = created
	return copyStory(created), nil
}

func (r *storyRepository) Get(ctx context.Context, id types.StoryID) (*model.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	story, exists := r.stories[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", id))
	}

	return copyStory(story), nil
}

func (r *storyRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Story, 0)
	for _, s := range r.stories {
		if s.UserID == userID {
			result = append(result, copyStory(s))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *storyRepository) Update(ctx context.Context, userID types.UserID, story *model.Story) (*model.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.stories[story.ID]
	if !exists || current.UserID != userID {
		return nil, goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", story.ID))
	}

	updated := copyStory(story)
	updated.UserID = userID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.stories[updated.ID] = updated
	return copyStory(updated), nil
}

func (r *storyRepository) Delete(ctx context.Context, userID types.UserID, id types.StoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.stories[id]
	if !exists || current.UserID != userID {
		return goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", id))
	}

	delete(r.stories, id)
	return nil
}

func (r *storyRepository) DeleteByUser(ctx context.Context, userID types.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.stories {
		if s.UserID == userID {
			delete(r.stories, id)
		}
	}

	return nil
}

func (r *storyRepository) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.SimilarStory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*model.SimilarStory
	for _, s := range r.stories {
		if len(s.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, &model.SimilarStory{
			Story: copyStory(s),
			Score: cosineSimilarity(embedding, s.Embedding),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	return candidates[:limit], nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
