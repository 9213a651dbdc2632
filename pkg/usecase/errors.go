package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrStoryNotFound = errors.New("story not found")
	ErrUserNotFound  = errors.New("user not found")

	// Pipeline errors
	ErrExtractionFailed = errors.New("timeline extraction failed")
	ErrEmbeddingFailed  = errors.New("embedding generation failed")

	// Identity errors
	ErrIdentityResolution = errors.New("identity resolution failed")

	// Validation errors
	ErrEmptyNarrative = errors.New("narrative text is required")
)
