package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/platform/metrics"
	"github.com/phrazzld/caption-api/internal/platform/providers"
	"github.com/phrazzld/caption-api/internal/service/caption"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Recorder

	provider       generation.Provider
	captionService *caption.Service
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &application{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
	}

	var err error
	app.provider, err = providers.New(ctx, cfg.Provider, logger, app.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}
	logger.Info("Provider initialized", "provider", app.provider.Name(), "model", cfg.Provider.Model)

	app.captionService, err = caption.NewService(app.provider, logger, app.metrics, caption.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create caption service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	app.logger.Info("Application shutdown completed")
}
