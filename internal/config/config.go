package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Provider ProviderConfig `mapstructure:"provider" validate:"required"`
	Retry    RetryConfig    `mapstructure:"retry" validate:"required"`
	Upload   UploadConfig   `mapstructure:"upload" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// RequestsPerSecond and Burst configure the inbound rate limiter.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gt=0"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown bound as a duration.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// ProviderConfig contains settings for the upstream generative AI provider.
type ProviderConfig struct {
	// Name selects the gateway implementation.
	Name string `mapstructure:"name" validate:"required,oneof=openai gemini"`
	// APIKey may be empty; the key check endpoint reports why it is unusable.
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	Model          string `mapstructure:"model" validate:"required"`
	VisionModel    string `mapstructure:"vision_model" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0,lte=300"`
}

// Timeout returns the per-call timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// RetryConfig contains retry policies for provider calls.
type RetryConfig struct {
	MaxAttempts       int  `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	InitialDelayMs    int  `mapstructure:"initial_delay_ms" validate:"gte=0"`
	Jitter            bool `mapstructure:"jitter"`
	OCRMaxAttempts    int  `mapstructure:"ocr_max_attempts" validate:"gte=1,lte=10"`
	OCRInitialDelayMs int  `mapstructure:"ocr_initial_delay_ms" validate:"gte=0"`
}

// UploadConfig contains limits for image uploads.
type UploadConfig struct {
	MaxImageBytes int64 `mapstructure:"max_image_bytes" validate:"gt=0"`
}
