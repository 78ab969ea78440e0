// Package main implements the entry point for the caption API server,
// which generates social media captions, hashtags, OCR results and
// translations through a configurable generative AI provider.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/platform/logger"
)

// main is the entry point for the caption-api server.
// It loads configuration, sets up logging, wires dependencies and serves
// HTTP until SIGINT or SIGTERM.
func main() {
	cfg, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, slog.Default())
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
// Returns the loaded config and any initialization error.
func initializeApp() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, err := logger.Setup(cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"provider", cfg.Provider.Name,
		"api_key_present", cfg.Provider.APIKey != "")

	return cfg, nil
}
