package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/neuro86/neuro86/pkg/cli/config"
	httpctrl "github.com/neuro86/neuro86/pkg/controller/http"
	"github.com/neuro86/neuro86/pkg/usecase"
	"github.com/neuro86/neuro86/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var llmCfg config.LLM
	var authCfg config.Auth
	var resourcesCfg config.Resources
	var discourseCfg config.Discourse

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("NEURO86_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, resourcesCfg.Flags()...)
	flags = append(flags, discourseCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}

			verifier, err := authCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			resources, err := resourcesCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load resources")
			}

			discourseSvc, err := discourseCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Discourse SSO")
			}

			uc := usecase.New(repo, llmClient)

			httpOpts := []httpctrl.Options{}
			if resources != nil {
				httpOpts = append(httpOpts, httpctrl.WithResources(resources))
			}
			if discourseSvc != nil {
				httpOpts = append(httpOpts, httpctrl.WithDiscourse(discourseSvc))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, verifier, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
