package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/neuro86/neuro86/pkg/domain/interfaces"
	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/repository/firestore"
	"github.com/neuro86/neuro86/pkg/repository/memory"
)

// testEmbedding returns a unit test vector of the configured dimension with a
// single distinguishing component
func testEmbedding(hot int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[hot] = 1.0
	return v
}

func createTestUser(t *testing.T, repo interfaces.Repository) *model.User {
	t.Helper()
	user, err := repo.User().Create(context.Background(), &model.User{
		SessionToken: types.NewSessionToken(),
	})
	gt.NoError(t, err).Required()
	return user
}

func runStoryRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		user := createTestUser(t, repo)

		created, err := repo.Story().Create(ctx, &model.Story{
			UserID:    user.ID,
			Title:     "Recovery after surgery",
			RawText:   "Diagnosed 2020, surgery 2020-11-19, recovered well.",
			Embedding: testEmbedding(0),
		})
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(types.StoryID(""))
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Array(t, created.Embedding).Length(model.EmbeddingDimension)
	})

	t.Run("ListByUser returns own stories newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		user := createTestUser(t, repo)
		other := createTestUser(t, repo)

		older, err := repo.Story().Create(ctx, &model.Story{
			UserID: user.ID, Title: "first", RawText: "first story", Embedding: testEmbedding(0),
		})
		gt.NoError(t, err).Required()

		newer, err := repo.Story().Create(ctx, &model.Story{
			UserID: user.ID, Title: "second", RawText: "second story", Embedding: testEmbedding(1),
		})
		gt.NoError(t, err).Required()

		_, err = repo.Story().Create(ctx, &model.Story{
			UserID: other.ID, Title: "foreign", RawText: "not mine", Embedding: testEmbedding(2),
		})
		gt.NoError(t, err).Required()

		stories, err := repo.Story().ListByUser(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, stories).Length(2)
		gt.Value(t, stories[0].ID).Equal(newer.ID)
		gt.Value(t, stories[1].ID).Equal(older.ID)
	})

	t.Run("Update is ownership scoped", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := createTestUser(t, repo)
		stranger := createTestUser(t, repo)

		created, err := repo.Story().Create(ctx, &model.Story{
			UserID: owner.ID, Title: "mine", RawText: "original text", Embedding: testEmbedding(0),
		})
		gt.NoError(t, err).Required()

		// A foreign user updating this story gets not-found
		created.RawText = "tampered"
		_, err = repo.Story().Update(ctx, stranger.ID, created)
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()

		// And the story is untouched
		got, err := repo.Story().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.RawText).Equal("original text")

		// The owner succeeds
		created.RawText = "edited text"
		updated, err := repo.Story().Update(ctx, owner.ID, created)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.RawText).Equal("edited text")
	})

	t.Run("Delete is ownership scoped", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := createTestUser(t, repo)
		stranger := createTestUser(t, repo)

		created, err := repo.Story().Create(ctx, &model.Story{
			UserID: owner.ID, Title: "mine", RawText: "text", Embedding: testEmbedding(0),
		})
		gt.NoError(t, err).Required()

		err = repo.Story().Delete(ctx, stranger.ID, created.ID)
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()

		_, err = repo.Story().Get(ctx, created.ID)
		gt.NoError(t, err)

		gt.NoError(t, repo.Story().Delete(ctx, owner.ID, created.ID)).Required()

		_, err = repo.Story().Get(ctx, created.ID)
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()
	})

	t.Run("DeleteByUser removes only that user's stories", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		user := createTestUser(t, repo)
		other := createTestUser(t, repo)

		_, err := repo.Story().Create(ctx, &model.Story{
			UserID: user.ID, RawText: "a", Embedding: testEmbedding(0),
		})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Create(ctx, &model.Story{
			UserID: user.ID, RawText: "b", Embedding: testEmbedding(1),
		})
		gt.NoError(t, err).Required()
		kept, err := repo.Story().Create(ctx, &model.Story{
			UserID: other.ID, RawText: "c", Embedding: testEmbedding(2),
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Story().DeleteByUser(ctx, user.ID)).Required()

		mine, err := repo.Story().ListByUser(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, mine).Length(0)

		_, err = repo.Story().Get(ctx, kept.ID)
		gt.NoError(t, err)
	})

	t.Run("FindByEmbedding ranks by similarity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		user := createTestUser(t, repo)

		near, err := repo.Story().Create(ctx, &model.Story{
			UserID: user.ID, RawText: "near", Embedding: testEmbedding(0),
		})
		gt.NoError(t, err).Required()

		far, err := repo.Story().Create(ctx, &model.Story{
			UserID: user.ID, RawText: "far", Embedding: testEmbedding(100),
		})
		gt.NoError(t, err).Required()

		results, err := repo.Story().FindByEmbedding(ctx, testEmbedding(0), 2)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(2)
		gt.Value(t, results[0].Story.ID).Equal(near.ID)
		gt.Value(t, results[1].Story.ID).Equal(far.ID)
		gt.Bool(t, results[0].Score >= results[1].Score).True()
	})

	t.Run("FindByEmbedding on empty store returns empty list", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		results, err := repo.Story().FindByEmbedding(ctx, testEmbedding(0), 5)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(0)
	})
}

func TestStoryRepository_Memory(t *testing.T) {
	runStoryRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestStoryRepository_Firestore(t *testing.T) {
	runStoryRepositoryTest(t, newFirestoreRepo)
}
