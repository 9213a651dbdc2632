package interfaces

import (
	"context"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	User() UserRepository
	Story() StoryRepository
	Close() error
}

// UserRepository persists user records. GetBySubject and GetBySessionToken
// return ErrNotFound (wrapped) when no record matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	Get(ctx context.Context, id types.UserID) (*model.User, error)
	GetBySubject(ctx context.Context, subject string) (*model.User, error)
	GetBySessionToken(ctx context.Context, token types.SessionToken) (*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)

	// UpdateTimeline replaces the user's cached timeline. A nil timeline
	// clears the cache.
	UpdateTimeline(ctx context.Context, id types.UserID, timeline *model.TimelineDocument) error
}

// StoryRepository persists stories and serves the vector nearest-neighbor
// query. Mutations that take both a story ID and a user ID are ownership
// scoped: a story belonging to another user behaves exactly like a missing
// one.
type StoryRepository interface {
	Create(ctx context.Context, story *model.Story) (*model.Story, error)
	Get(ctx context.Context, id types.StoryID) (*model.Story, error)
	ListByUser(ctx context.Context, userID types.UserID) ([]*model.Story, error)
	Update(ctx context.Context, userID types.UserID, story *model.Story) (*model.Story, error)
	Delete(ctx context.Context, userID types.UserID, id types.StoryID) error
	DeleteByUser(ctx context.Context, userID types.UserID) error

	// FindByEmbedding returns up to limit stories nearest to the given
	// vector, ordered by descending similarity.
	FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.SimilarStory, error)
}
