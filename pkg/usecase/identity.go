package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/domain/interfaces"
	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/model/auth"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// sessionTokenRetries bounds token regeneration when an insert collides with
// a concurrently taken session token
const sessionTokenRetries = 3

// IdentityUseCase reconciles anonymous sessions with authenticated
// identities. The external subject is the durable dedup key: once a user
// carries one, every later resolution with the same subject returns that
// user.
type IdentityUseCase struct {
	repo interfaces.Repository
}

func NewIdentityUseCase(repo interfaces.Repository) *IdentityUseCase {
	return &IdentityUseCase{repo: repo}
}

// Lookup returns the user owning a session token without creating one
func (uc *IdentityUseCase) Lookup(ctx context.Context, sessionToken types.SessionToken) (*model.User, error) {
	user, err := uc.repo.User().GetBySessionToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrUserNotFound, "no user for session")
		}
		return nil, goerr.Wrap(err, "session lookup failed")
	}
	return user, nil
}

// Resolve returns the single user record for the caller, creating or merging
// records as needed. identity is nil for anonymous callers; sessionToken is
// empty when the caller has no session yet.
func (uc *IdentityUseCase) Resolve(ctx context.Context, identity *auth.Identity, sessionToken types.SessionToken) (*model.User, error) {
	if identity == nil {
		return uc.resolveAnonymous(ctx, sessionToken)
	}
	return uc.resolveAuthenticated(ctx, identity, sessionToken)
}

func (uc *IdentityUseCase) resolveAnonymous(ctx context.Context, sessionToken types.SessionToken) (*model.User, error) {
	if sessionToken != "" {
		user, err := uc.repo.User().GetBySessionToken(ctx, sessionToken)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrIdentityResolution, "session lookup failed", goerr.V("cause", err))
		}

		// The caller's token is the upsert key: keep it so that retries of the
		// same first contact land on one record
		created, err := uc.repo.User().Create(ctx, &model.User{SessionToken: sessionToken})
		if err == nil {
			return created, nil
		}
		if errors.Is(err, interfaces.ErrAlreadyExists) {
			// Lost a concurrent first contact for the same token
			return uc.repo.User().GetBySessionToken(ctx, sessionToken)
		}
		return nil, goerr.Wrap(ErrIdentityResolution, "failed to create user", goerr.V("cause", err))
	}

	return uc.createWithFreshToken(ctx, &model.User{})
}

func (uc *IdentityUseCase) resolveAuthenticated(ctx context.Context, identity *auth.Identity, sessionToken types.SessionToken) (*model.User, error) {
	if identity.Subject == "" {
		return nil, goerr.Wrap(ErrIdentityResolution, "identity has no subject")
	}

	user, err := uc.repo.User().GetBySubject(ctx, identity.Subject)
	if err == nil {
		return uc.refreshDisplayName(ctx, user, identity.Name)
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(ErrIdentityResolution, "subject lookup failed", goerr.V("cause", err))
	}

	// An anonymous user completing sign-in keeps their record; the subject is
	// attached in place
	if sessionToken != "" {
		sessionUser, err := uc.repo.User().GetBySessionToken(ctx, sessionToken)
		if err == nil && sessionUser.IsAnonymous() {
			sessionUser.Subject = identity.Subject
			sessionUser.DisplayName = identity.Name
			merged, err := uc.repo.User().Update(ctx, sessionUser)
			if err == nil {
				return merged, nil
			}
			if errors.Is(err, interfaces.ErrAlreadyExists) {
				// Lost the race: someone else linked this subject first
				return uc.repo.User().GetBySubject(ctx, identity.Subject)
			}
			return nil, goerr.Wrap(ErrIdentityResolution, "failed to link subject", goerr.V("cause", err))
		}
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrIdentityResolution, "session lookup failed", goerr.V("cause", err))
		}
	}

	created, err := uc.createWithFreshToken(ctx, &model.User{
		Subject:     identity.Subject,
		DisplayName: identity.Name,
	})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, interfaces.ErrAlreadyExists) {
		// Concurrent creation for the same subject
		return uc.repo.User().GetBySubject(ctx, identity.Subject)
	}
	return nil, err
}

// createWithFreshToken inserts a user, regenerating the session token when it
// collides with an existing one. A subject conflict is returned as-is since a
// new token cannot resolve it.
func (uc *IdentityUseCase) createWithFreshToken(ctx context.Context, user *model.User) (*model.User, error) {
	var lastErr error
	for range sessionTokenRetries {
		user.SessionToken = types.NewSessionToken()
		created, err := uc.repo.User().Create(ctx, user)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, interfaces.ErrAlreadyExists) && user.Subject != "" {
			if _, subErr := uc.repo.User().GetBySubject(ctx, user.Subject); subErr == nil {
				return nil, err
			}
		}
		lastErr = err
		if !errors.Is(err, interfaces.ErrAlreadyExists) {
			break
		}
	}
	return nil, goerr.Wrap(ErrIdentityResolution, "failed to create user", goerr.V("cause", lastErr))
}

func (uc *IdentityUseCase) refreshDisplayName(ctx context.Context, user *model.User, name string) (*model.User, error) {
	if name == "" || user.DisplayName == name {
		return user, nil
	}

	user.DisplayName = name
	updated, err := uc.repo.User().Update(ctx, user)
	if err != nil {
		// Stale display name is harmless; the resolved user still stands
		logging.From(ctx).Warn("failed to refresh display name", "error", err, "user_id", user.ID)
		return user, nil
	}
	return updated, nil
}
