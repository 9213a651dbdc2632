package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/neuro86/neuro86/pkg/usecase"
)

// Auth holds CLI flags for ID token verification
type Auth struct {
	domain   string
	audience string
}

// Flags returns CLI flags for auth configuration
func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "auth-domain",
			Usage:       "Token issuer domain hosting the JWKS endpoint",
			Sources:     cli.EnvVars("NEURO86_AUTH_DOMAIN"),
			Destination: &x.domain,
		},
		&cli.StringFlag{
			Name:        "auth-audience",
			Usage:       "Expected audience claim of ID tokens",
			Sources:     cli.EnvVars("NEURO86_AUTH_AUDIENCE"),
			Destination: &x.audience,
		},
	}
}

// Configure builds the ID token verifier
func (x *Auth) Configure(ctx context.Context) (*usecase.AuthUseCase, error) {
	if x.domain == "" {
		return nil, goerr.New("auth-domain is required")
	}
	if x.audience == "" {
		return nil, goerr.New("auth-audience is required")
	}

	return usecase.NewAuthUseCase(ctx, x.domain, x.audience)
}
