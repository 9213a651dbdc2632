package model

import (
	"strings"
	"time"

	"github.com/neuro86/neuro86/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// OpenAI text-embedding-3-small uses 1536 dimensions.
const EmbeddingDimension = 1536

// Story is a submitted narrative together with its derived fields. The
// embedding dimensionality is fixed per deployment; a story is never
// persisted without a complete embedding.
type Story struct {
	ID       types.StoryID
	UserID   types.UserID
	Title    string
	RawText  string `masq:"secret"`
	Timeline *TimelineDocument
	// Embedding is the semantic vector of RawText, EmbeddingDimension long
	Embedding []float32

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SimilarStory is a story returned from a vector nearest-neighbor query with
// its similarity score (higher is more similar)
type SimilarStory struct {
	Story *Story
	Score float64
}

// CombineNarratives joins story texts for a combined timeline regeneration.
// Stories must be given newest first; texts are separated by a blank line so
// the extraction model reconciles them into one coherent timeline. The order
// is deterministic so repeated regeneration from the same stories feeds the
// model identical input.
func CombineNarratives(newestFirst []*Story) string {
	texts := make([]string, 0, len(newestFirst))
	for _, s := range newestFirst {
		texts = append(texts, s.RawText)
	}
	return strings.Join(texts, "\n\n")
}
