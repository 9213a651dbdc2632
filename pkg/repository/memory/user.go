package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
)

type userRepository struct {
	mu        sync.RWMutex
	users     map[types.UserID]*model.User
	bySession map[types.SessionToken]types.UserID
	bySubject map[string]types.UserID
}

func newUserRepository() *userRepository {
	return &userRepository{
		users:     make(map[types.UserID]*model.User),
		bySession: make(map[types.SessionToken]types.UserID),
		bySubject: make(map[string]types.UserID),
	}
}

func copyTimeline(t *model.TimelineDocument) *model.TimelineDocument {
	if t == nil {
		return nil
	}
	copied := &model.TimelineDocument{
		PatientDetails: t.PatientDetails,
		Events:         make([]model.TimelineEvent, len(t.Events)),
	}
	copy(copied.Events, t.Events)
	return copied
}

// copyUser creates a deep copy of a user record
func copyUser(u *model.User) *model.User {
	copied := *u
	copied.Timeline = copyTimeline(u.Timeline)
	return &copied
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyUser(user)
	if created.ID == "" {
		created.ID = types.NewUserID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, exists := r.bySession[created.SessionToken]; exists {
		return nil, goerr.Wrap(ErrAlreadyExists, "session token already taken")
	}
	if created.Subject != "" {
		if _, exists := r.bySubject[created.Subject]; exists {
			return nil, goerr.Wrap(ErrAlreadyExists, "subject already taken", goerr.V("subject", created.Subject))
		}
	}

	r.users[created.ID] = created
	r.bySession[created.SessionToken] = created.ID
	if created.Subject != "" {
		r.bySubject[created.Subject] = created.ID
	}

	return copyUser(created), nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
	}

	return copyUser(user), nil
}

func (r *userRepository) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.bySubject[subject]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("subject", subject))
	}

	return copyUser(r.users[id]), nil
}

func (r *userRepository) GetBySessionToken(ctx context.Context, token types.SessionToken) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.bySession[token]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "user not found")
	}

	return copyUser(r.users[id]), nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.users[user.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", user.ID))
	}

	updated := copyUser(user)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if updated.Subject != "" && current.Subject != updated.Subject {
		if owner, exists := r.bySubject[updated.Subject]; exists && owner != updated.ID {
			return nil, goerr.Wrap(ErrAlreadyExists, "subject already linked", goerr.V("subject", updated.Subject))
		}
		r.bySubject[updated.Subject] = updated.ID
	}

	if current.SessionToken != updated.SessionToken {
		if owner, exists := r.bySession[updated.SessionToken]; exists && owner != updated.ID {
			return nil, goerr.Wrap(ErrAlreadyExists, "session token already taken")
		}
		delete(r.bySession, current.SessionToken)
		r.bySession[updated.SessionToken] = updated.ID
	}

	r.users[updated.ID] = updated
	return copyUser(updated), nil
}

func (r *userRepository) UpdateTimeline(ctx context.Context, id types.UserID, timeline *model.TimelineDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
	}

	user.Timeline = copyTimeline(timeline)
	user.UpdatedAt = time.Now().UTC()
	return nil
}
