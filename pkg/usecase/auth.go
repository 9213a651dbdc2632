package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/domain/model/auth"
)

// AuthUseCase verifies externally issued ID tokens against the identity
// provider's published key set. The provider itself is opaque: only the
// signature, issuer, audience and subject claim matter here.
type AuthUseCase struct {
	issuer   string
	audience string
	jwksURL  string
	cache    *jwk.Cache
}

// NewAuthUseCase builds a verifier for the given provider domain and
// audience. The JWKS is cached and refreshed in the background for the
// lifetime of ctx.
func NewAuthUseCase(ctx context.Context, domain, audience string) (*AuthUseCase, error) {
	if domain == "" {
		return nil, goerr.New("auth domain is required")
	}
	if audience == "" {
		return nil, goerr.New("auth audience is required")
	}

	domain = strings.TrimSuffix(domain, "/")
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, goerr.Wrap(err, "failed to register JWKS URL", goerr.V("url", jwksURL))
	}

	return &AuthUseCase{
		issuer:   fmt.Sprintf("https://%s/", domain),
		audience: audience,
		jwksURL:  jwksURL,
		cache:    cache,
	}, nil
}

// VerifyIDToken validates the raw token and returns the identity it asserts.
// A missing subject claim is a verification failure: the subject is the only
// durable key for a user.
func (uc *AuthUseCase) VerifyIDToken(ctx context.Context, rawToken string) (*auth.Identity, error) {
	keySet, err := uc.cache.Get(ctx, uc.jwksURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch provider public keys", goerr.V("jwks_url", uc.jwksURL))
	}

	// Allow 10 seconds of clock skew to handle time synchronization differences
	token, err := jwt.Parse([]byte(rawToken),
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithIssuer(uc.issuer),
		jwt.WithAudience(uc.audience),
		jwt.WithAcceptableSkew(10*time.Second),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse or verify ID token")
	}

	sub := token.Subject()
	if sub == "" {
		return nil, goerr.New("sub claim not found in token")
	}

	var name string
	if v, ok := token.Get("name"); ok {
		name, _ = v.(string)
	}

	return &auth.Identity{
		Subject: sub,
		Name:    name,
	}, nil
}
