package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/cli/config"
	httpctrl "github.com/secmon-lab/riskassess/pkg/controller/http"
	"github.com/secmon-lab/riskassess/pkg/service/worker"
	"github.com/secmon-lab/riskassess/pkg/usecase"
	"github.com/secmon-lab/riskassess/pkg/utils/async"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var requestTimeout time.Duration
	var reclassify bool
	var reclassifyInterval time.Duration
	var appCfg config.App
	var repoCfg config.Repository
	var sessionCfg config.Session
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RISKASSESS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Timeout of a single API request",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("RISKASSESS_REQUEST_TIMEOUT"),
			Destination: &requestTimeout,
		},
		&cli.BoolFlag{
			Name:        "reclassify-on-start",
			Usage:       "Re-derive stored risk ratings from the active ranges at startup",
			Value:       true,
			Sources:     cli.EnvVars("RISKASSESS_RECLASSIFY_ON_START"),
			Destination: &reclassify,
		},
		&cli.DurationFlag{
			Name:        "reclassify-interval",
			Usage:       "Interval of periodic rating re-derivation (0 disables)",
			Sources:     cli.EnvVars("RISKASSESS_RECLASSIFY_INTERVAL"),
			Destination: &reclassifyInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, sessionCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			ucOpts, err := appCfg.Options()
			if err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}

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

			sessions, closeSessions, err := sessionCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize session store")
			}
			defer closeSessions()

			ucOpts = append(ucOpts, usecase.WithSessionStore(sessions))
			uc := usecase.New(repo, ucOpts...)

			logging.Default().Info("Serve configuration",
				"app", appCfg,
				"repository", repoCfg,
				"sentry", sentryCfg,
			)

			if reclassifyInterval > 0 {
				w := worker.NewReclassifyWorker(uc.Scoring, reclassifyInterval)
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
			} else if reclassify {
				async.Dispatch(ctx, "reclassify", func(ctx context.Context) error {
					n, err := uc.Scoring.ReclassifyAll(ctx)
					if err != nil {
						return err
					}
					logging.From(ctx).Info("Stored ratings re-derived", "updated", n)
					return nil
				})
			}

			server := &http.Server{
				Addr: addr,
				Handler: httpctrl.New(uc,
					httpctrl.WithSentry(sentryCfg.Enabled()),
					httpctrl.WithRequestTimeout(requestTimeout),
				),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
