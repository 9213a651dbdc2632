package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/model/auth"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/utils/errutil"
)

// sessionCookieName carries the anonymous session token across requests
const sessionCookieName = "session_token"

// sessionCookieMaxAge keeps the anonymous session alive for a year
const sessionCookieMaxAge = 365 * 24 * 60 * 60

// TokenVerifier validates a raw ID token and returns the identity it asserts
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (*auth.Identity, error)
}

type ctxUserKey struct{}

func contextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

func userFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxUserKey{}).(*model.User)
	return user
}

// identityMiddleware authenticates the request and resolves the caller to a
// single user record. The bearer ID token is mandatory; the session cookie,
// when present, lets the resolver merge an earlier anonymous session into the
// authenticated user.
func (s *Server) identityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			rawToken := bearerToken(r)
			if rawToken == "" {
				errutil.HandleHTTP(ctx, w, goerr.New("authentication required"), http.StatusUnauthorized)
				return
			}

			identity, err := s.verifier.VerifyIDToken(ctx, rawToken)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid token"), http.StatusUnauthorized)
				return
			}
			ctx = auth.ContextWithIdentity(ctx, identity)

			user, err := s.uc.Identity.Resolve(ctx, identity, sessionTokenFromCookie(r))
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
				return
			}

			setSessionCookie(w, r, user.SessionToken)
			next.ServeHTTP(w, r.WithContext(contextWithUser(ctx, user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func sessionTokenFromCookie(r *http.Request) types.SessionToken {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return types.SessionToken(cookie.Value)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token types.SessionToken) {
	if sessionTokenFromCookie(r) == token {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionCookieMaxAge,
	})
}
