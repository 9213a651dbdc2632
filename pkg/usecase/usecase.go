package usecase

import (
	"github.com/m-mizutani/gollem"

	"github.com/neuro86/neuro86/pkg/domain/interfaces"
)

type UseCases struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient

	Identity *IdentityUseCase
	Story    *StoryUseCase
	Similar  *SimilarUseCase
}

type Option func(*UseCases)

// WithSimilarLimit overrides the default similar-story result count
func WithSimilarLimit(limit int) Option {
	return func(uc *UseCases) {
		uc.Similar.limit = limit
	}
}

func New(repo interfaces.Repository, llmClient gollem.LLMClient, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		llmClient: llmClient,
	}

	uc.Identity = NewIdentityUseCase(repo)
	uc.Story = NewStoryUseCase(repo, llmClient)
	uc.Similar = NewSimilarUseCase(repo)

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
