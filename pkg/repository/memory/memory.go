package memory

import (
	"github.com/neuro86/neuro86/pkg/domain/interfaces"
)

// Sentinels are re-exported so callers can match without importing the
// interfaces package
var (
	ErrNotFound      = interfaces.ErrNotFound
	ErrAlreadyExists = interfaces.ErrAlreadyExists
)

type Memory struct {
	user  *userRepository
	story *storyRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		user:  newUserRepository(),
		story: newStoryRepository(),
	}
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Story() interfaces.StoryRepository {
	return m.story
}

func (m *Memory) Close() error {
	return nil
}
