package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/neuro86/neuro86/pkg/domain/interfaces"
	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/repository/firestore"
	"github.com/neuro86/neuro86/pkg/repository/memory"
)

func newFirestoreRepo(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("FIRESTORE_PROJECT_ID not set")
	}

	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(context.Background(), projectID, os.Getenv("FIRESTORE_DATABASE_ID"),
		firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Logf("failed to close firestore repo: %v", err)
		}
	})
	return repo
}

func runUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.User().Create(ctx, &model.User{
			SessionToken: types.NewSessionToken(),
		})
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(types.UserID(""))
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()
		gt.Bool(t, created.IsAnonymous()).True()
	})

	t.Run("GetBySessionToken finds created user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := types.NewSessionToken()
		created, err := repo.User().Create(ctx, &model.User{SessionToken: token})
		gt.NoError(t, err).Required()

		found, err := repo.User().GetBySessionToken(ctx, token)
		gt.NoError(t, err).Required()
		gt.Value(t, found.ID).Equal(created.ID)
	})

	t.Run("Create rejects duplicate session token", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := types.NewSessionToken()
		_, err := repo.User().Create(ctx, &model.User{SessionToken: token})
		gt.NoError(t, err).Required()

		_, err = repo.User().Create(ctx, &model.User{SessionToken: token})
		gt.Bool(t, errors.Is(err, memory.ErrAlreadyExists) || errors.Is(err, firestore.ErrAlreadyExists)).True()
	})

	t.Run("GetBySubject finds authenticated user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.User().Create(ctx, &model.User{
			SessionToken: types.NewSessionToken(),
			Subject:      "auth0|sub-001",
			DisplayName:  "alice",
		})
		gt.NoError(t, err).Required()

		found, err := repo.User().GetBySubject(ctx, "auth0|sub-001")
		gt.NoError(t, err).Required()
		gt.Value(t, found.ID).Equal(created.ID)
		gt.Value(t, found.DisplayName).Equal("alice")
	})

	t.Run("GetBySubject returns not found for unknown subject", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.User().GetBySubject(ctx, "auth0|nobody")
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()
	})

	t.Run("Update attaches subject to anonymous user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.User().Create(ctx, &model.User{SessionToken: types.NewSessionToken()})
		gt.NoError(t, err).Required()

		created.Subject = "auth0|sub-002"
		created.DisplayName = "bob"
		updated, err := repo.User().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Subject).Equal("auth0|sub-002")

		found, err := repo.User().GetBySubject(ctx, "auth0|sub-002")
		gt.NoError(t, err).Required()
		gt.Value(t, found.ID).Equal(created.ID)
	})

	t.Run("Update rejects subject already linked elsewhere", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.User().Create(ctx, &model.User{
			SessionToken: types.NewSessionToken(),
			Subject:      "auth0|sub-003",
		})
		gt.NoError(t, err).Required()

		other, err := repo.User().Create(ctx, &model.User{SessionToken: types.NewSessionToken()})
		gt.NoError(t, err).Required()

		other.Subject = "auth0|sub-003"
		_, err = repo.User().Update(ctx, other)
		gt.Bool(t, errors.Is(err, memory.ErrAlreadyExists) || errors.Is(err, firestore.ErrAlreadyExists)).True()
	})

	t.Run("Update moves the session token lookup", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		oldToken := types.NewSessionToken()
		created, err := repo.User().Create(ctx, &model.User{SessionToken: oldToken})
		gt.NoError(t, err).Required()

		newToken := types.NewSessionToken()
		created.SessionToken = newToken
		_, err = repo.User().Update(ctx, created)
		gt.NoError(t, err).Required()

		found, err := repo.User().GetBySessionToken(ctx, newToken)
		gt.NoError(t, err).Required()
		gt.Value(t, found.ID).Equal(created.ID)

		_, err = repo.User().GetBySessionToken(ctx, oldToken)
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()
	})

	t.Run("Update rejects session token already taken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		taken := types.NewSessionToken()
		_, err := repo.User().Create(ctx, &model.User{SessionToken: taken})
		gt.NoError(t, err).Required()

		other, err := repo.User().Create(ctx, &model.User{SessionToken: types.NewSessionToken()})
		gt.NoError(t, err).Required()

		other.SessionToken = taken
		_, err = repo.User().Update(ctx, other)
		gt.Bool(t, errors.Is(err, memory.ErrAlreadyExists) || errors.Is(err, firestore.ErrAlreadyExists)).True()
	})

	t.Run("UpdateTimeline stores and clears cached timeline", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.User().Create(ctx, &model.User{SessionToken: types.NewSessionToken()})
		gt.NoError(t, err).Required()

		timeline := &model.TimelineDocument{
			Events: []model.TimelineEvent{
				{Phase: types.PhaseDiagnosis, Type: "test", Date: "2020-02-20"},
			},
		}
		gt.NoError(t, repo.User().UpdateTimeline(ctx, created.ID, timeline)).Required()

		found, err := repo.User().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, found.Timeline).NotNil()
		gt.Array(t, found.Timeline.Events).Length(1)

		gt.NoError(t, repo.User().UpdateTimeline(ctx, created.ID, nil)).Required()

		found, err = repo.User().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, found.Timeline).Nil()
	})
}

func TestUserRepository_Memory(t *testing.T) {
	runUserRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestUserRepository_Firestore(t *testing.T) {
	runUserRepositoryTest(t, newFirestoreRepo)
}
