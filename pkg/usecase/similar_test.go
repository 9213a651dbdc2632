package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/repository/memory"
	"github.com/neuro86/neuro86/pkg/usecase"
)

func TestSimilarFindForUser(t *testing.T) {
	t.Run("empty store yields empty list without error", func(t *testing.T) {
		repo := memory.New()
		similarUC := usecase.NewSimilarUseCase(repo)

		results := similarUC.FindForUser(context.Background(), types.NewUserID())
		gt.Array(t, results).Length(0)
	})

	t.Run("user without stories yields empty list", func(t *testing.T) {
		repo := memory.New()
		similarUC := usecase.NewSimilarUseCase(repo)
		ctx := context.Background()

		other := types.NewUserID()
		_, err := repo.Story().Create(ctx, &model.Story{
			UserID: other, RawText: "someone else", Embedding: testVector(0),
		})
		gt.NoError(t, err).Required()

		results := similarUC.FindForUser(ctx, types.NewUserID())
		gt.Array(t, results).Length(0)
	})

	t.Run("excludes the caller's own stories", func(t *testing.T) {
		repo := memory.New()
		similarUC := usecase.NewSimilarUseCase(repo)
		ctx := context.Background()

		me := types.NewUserID()
		peer := types.NewUserID()

		// Two of my own stories, nearly identical vectors
		_, err := repo.Story().Create(ctx, &model.Story{
			UserID: me, RawText: "mine older", Embedding: testVector(0),
		})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Create(ctx, &model.Story{
			UserID: me, RawText: "mine newer", Embedding: testVector(0),
		})
		gt.NoError(t, err).Required()

		peerStory, err := repo.Story().Create(ctx, &model.Story{
			UserID: peer, RawText: "a peer's story", Embedding: testVector(0),
		})
		gt.NoError(t, err).Required()

		results := similarUC.FindForUser(ctx, me)
		gt.Array(t, results).Length(1).Required()
		gt.Value(t, results[0].Story.ID).Equal(peerStory.ID)
		gt.Value(t, results[0].Story.UserID).Equal(peer)
	})

	t.Run("ranks peers by similarity and respects the limit", func(t *testing.T) {
		repo := memory.New()
		similarUC := usecase.NewSimilarUseCase(repo)
		ctx := context.Background()

		me := types.NewUserID()
		_, err := repo.Story().Create(ctx, &model.Story{
			UserID: me, RawText: "mine", Embedding: testVector(0),
		})
		gt.NoError(t, err).Required()

		// Seven peers: enough to exceed the default limit of five
		for i := 1; i <= 7; i++ {
			emb := make([]float32, model.EmbeddingDimension)
			emb[0] = 1.0
			emb[i] = float32(i) // larger i diverges more from the reference
			_, err := repo.Story().Create(ctx, &model.Story{
				UserID: types.NewUserID(), RawText: "peer", Embedding: emb,
			})
			gt.NoError(t, err).Required()
		}

		results := similarUC.FindForUser(ctx, me)
		gt.Array(t, results).Length(5).Required()
		for i := 1; i < len(results); i++ {
			gt.Bool(t, results[i-1].Score >= results[i].Score).True()
		}
	})
}
