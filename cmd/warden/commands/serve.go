package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/warden/internal/setup"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ServeCommands returns the long running service command.
func ServeCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "serve",
			Usage: "Run the metrics endpoint, cache maintenance and alert delivery",
			Description: `Run until interrupted. SIGHUP reloads the config file and applies the
new detection, escalation and message settings without a restart.`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "migrate",
					Usage: "Apply pending database migrations on start",
				},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				opts := setup.Options{Component: "serve", AutoMigrate: c.Bool("migrate")}
				return deps.withApp(opts, handleServe)(ctx, c)
			},
		},
	}
}

// handleServe handles the 'serve' command.
func handleServe(ctx context.Context, _ *cli.Command, app *setup.App) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.Config.Config()

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	serveErr := make(chan error, 1)

	var wg conc.WaitGroup
	wg.Go(func() {
		app.Logger.Info("Serving metrics", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	})
	wg.Go(func() {
		sweep := time.Duration(cfg.VPNDetection.SweepMinutes) * time.Minute
		if sweep <= 0 {
			sweep = 30 * time.Minute
		}
		app.Cache.Run(ctx, sweep)
	})

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serveErr:
			runErr = fmt.Errorf("metrics server failed: %w", err)
			stop()
			break loop
		case <-reload:
			if _, err := app.Config.Reload(); err != nil {
				app.Logger.Error("Failed to reload config", zap.Error(err))
				continue
			}
			app.Logger.Info("Reloaded config", zap.String("path", app.Config.Path()))
		}
	}

	app.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Failed to stop metrics server", zap.Error(err))
	}

	wg.Wait()
	return runErr
}
