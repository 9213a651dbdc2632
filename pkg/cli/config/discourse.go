package config

import (
	"github.com/urfave/cli/v3"

	"github.com/neuro86/neuro86/pkg/service/discourse"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// Discourse holds CLI flags for the forum single sign-on handshake
type Discourse struct {
	secret string `masq:"secret"`
}

// Flags returns CLI flags for Discourse configuration
func (x *Discourse) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "discourse-sso-secret",
			Usage:       "Shared secret for Discourse Connect (SSO disabled when empty)",
			Sources:     cli.EnvVars("NEURO86_DISCOURSE_SSO_SECRET"),
			Destination: &x.secret,
		},
	}
}

// Configure builds the SSO service. Returns nil when no secret is set; the
// server then omits the SSO endpoint.
func (x *Discourse) Configure() (*discourse.Service, error) {
	if x.secret == "" {
		return nil, nil
	}

	svc, err := discourse.New(x.secret)
	if err != nil {
		return nil, err
	}

	logging.Default().Info("Discourse SSO enabled")
	return svc, nil
}
