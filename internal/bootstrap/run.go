package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/twpol/personalmissioncontrol/config"
)

// RunConfig groups dependencies for running the selected services.
type RunConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the enabled services and blocks until a
// termination signal arrives, then shuts everything down gracefully.
func RunServicesWithShutdown(cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("run config, app config, and services are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	if cfg.Config.IsHTTPServerEnabled() {
		server = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	updaterDone := make(chan error, 1)
	if cfg.Config.IsUpdaterEnabled() {
		go func() {
			updaterDone <- cfg.Services.Updater.Run(ctx)
		}()
	} else {
		close(updaterDone)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	stop()

	shutdownErr := ShutdownHTTPServer(context.Background(), server, logger)

	if err := <-updaterDone; err != nil && !errors.Is(err, context.Canceled) {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	return shutdownErr
}
