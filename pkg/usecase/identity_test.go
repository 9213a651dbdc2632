package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/neuro86/neuro86/pkg/domain/model/auth"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/repository/memory"
	"github.com/neuro86/neuro86/pkg/usecase"
)

func TestIdentityResolve_Anonymous(t *testing.T) {
	t.Run("creates a user with a fresh token when none supplied", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		user, err := uc.Resolve(ctx, nil, "")
		gt.NoError(t, err).Required()
		gt.Value(t, user.SessionToken).NotEqual(types.SessionToken(""))
		gt.Bool(t, user.IsAnonymous()).True()
	})

	t.Run("is idempotent for a known session token", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		first, err := uc.Resolve(ctx, nil, "")
		gt.NoError(t, err).Required()

		second, err := uc.Resolve(ctx, nil, first.SessionToken)
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID).Equal(first.ID)
		gt.Value(t, second.UpdatedAt).Equal(first.UpdatedAt)
	})

	t.Run("unknown token yields a new user keyed by that token", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		token := types.NewSessionToken()
		user, err := uc.Resolve(ctx, nil, token)
		gt.NoError(t, err).Required()
		gt.Bool(t, user.IsAnonymous()).True()
		gt.Value(t, user.SessionToken).Equal(token)
	})

	t.Run("is idempotent for a caller-supplied unknown token", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		token := types.NewSessionToken()
		first, err := uc.Resolve(ctx, nil, token)
		gt.NoError(t, err).Required()

		second, err := uc.Resolve(ctx, nil, token)
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID).Equal(first.ID)
	})
}

func TestIdentityResolve_Authenticated(t *testing.T) {
	t.Run("merges anonymous session into authenticated user", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		anon, err := uc.Resolve(ctx, nil, "")
		gt.NoError(t, err).Required()

		identity := &auth.Identity{Subject: "auth0|alice", Name: "Alice"}
		merged, err := uc.Resolve(ctx, identity, anon.SessionToken)
		gt.NoError(t, err).Required()
		gt.Value(t, merged.ID).Equal(anon.ID)
		gt.Value(t, merged.Subject).Equal("auth0|alice")
		gt.Value(t, merged.DisplayName).Equal("Alice")
	})

	t.Run("subject is the durable dedup key", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		identity := &auth.Identity{Subject: "auth0|bob", Name: "Bob"}
		first, err := uc.Resolve(ctx, identity, "")
		gt.NoError(t, err).Required()

		// Same subject from a different device (no session token)
		second, err := uc.Resolve(ctx, identity, "")
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID).Equal(first.ID)

		// And with an unrelated anonymous session
		third, err := uc.Resolve(ctx, identity, types.NewSessionToken())
		gt.NoError(t, err).Required()
		gt.Value(t, third.ID).Equal(first.ID)
	})

	t.Run("refreshes display name on later sign-in", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		first, err := uc.Resolve(ctx, &auth.Identity{Subject: "auth0|carol", Name: "Carol"}, "")
		gt.NoError(t, err).Required()

		renamed, err := uc.Resolve(ctx, &auth.Identity{Subject: "auth0|carol", Name: "Caroline"}, "")
		gt.NoError(t, err).Required()
		gt.Value(t, renamed.ID).Equal(first.ID)
		gt.Value(t, renamed.DisplayName).Equal("Caroline")
	})

	t.Run("rejects identity without subject", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		_, err := uc.Resolve(ctx, &auth.Identity{Name: "nobody"}, "")
		gt.Bool(t, errors.Is(err, usecase.ErrIdentityResolution)).True()
	})

	t.Run("session already linked to another subject gets a fresh user", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIdentityUseCase(repo)
		ctx := context.Background()

		linked, err := uc.Resolve(ctx, &auth.Identity{Subject: "auth0|dave"}, "")
		gt.NoError(t, err).Required()

		// A different subject presenting dave's session token must not steal
		// or overwrite his record
		other, err := uc.Resolve(ctx, &auth.Identity{Subject: "auth0|eve"}, linked.SessionToken)
		gt.NoError(t, err).Required()
		gt.Value(t, other.ID).NotEqual(linked.ID)
		gt.Value(t, other.Subject).Equal("auth0|eve")

		still, err := repo.User().GetBySubject(ctx, "auth0|dave")
		gt.NoError(t, err).Required()
		gt.Value(t, still.ID).Equal(linked.ID)
	})
}
