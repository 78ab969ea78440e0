// Package providers selects the generative AI gateway named in configuration.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/platform/gemini"
	"github.com/phrazzld/caption-api/internal/platform/metrics"
	"github.com/phrazzld/caption-api/internal/platform/openai"
)

// New builds the gateway selected by cfg.Name. rec may be nil.
func New(
	ctx context.Context,
	cfg config.ProviderConfig,
	logger *slog.Logger,
	rec *metrics.Recorder,
) (generation.Provider, error) {
	switch cfg.Name {
	case openai.ProviderName:
		return openai.NewClient(logger, cfg, openai.WithMetrics(rec))
	case gemini.ProviderName:
		return gemini.NewClient(ctx, logger, cfg, rec)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, cfg.Name)
	}
}
