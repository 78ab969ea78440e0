package caption

import (
	"time"

	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/retry"
)

// ConfigFrom derives service policies from application configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Retry: retry.Config{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialDelay:    time.Duration(cfg.Retry.InitialDelayMs) * time.Millisecond,
			Jitter:          cfg.Retry.Jitter,
			MaxParseRetries: retry.DefaultMaxParseRetries,
		},
		OCRRetry: retry.Config{
			MaxAttempts:     cfg.Retry.OCRMaxAttempts,
			InitialDelay:    time.Duration(cfg.Retry.OCRInitialDelayMs) * time.Millisecond,
			Jitter:          cfg.Retry.Jitter,
			MaxParseRetries: retry.DefaultMaxParseRetries,
		},
		MaxImageBytes: cfg.Upload.MaxImageBytes,
	}
}
