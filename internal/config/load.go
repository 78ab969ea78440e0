package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "CAPTION"

// Default values applied before reading files and environment.
var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.requests_per_second":      5.0,
	"server.burst":                    10,
	"server.shutdown_timeout_seconds": 10,
	"provider.name":                   "openai",
	"provider.api_key":                "",
	"provider.base_url":               "https://api.openai.com/v1",
	"provider.model":                  "gpt-4-turbo-preview",
	"provider.vision_model":           "gpt-4o",
	"provider.timeout_seconds":        30,
	"retry.max_attempts":              3,
	"retry.initial_delay_ms":          1000,
	"retry.jitter":                    true,
	"retry.ocr_max_attempts":          5,
	"retry.ocr_initial_delay_ms":      2000,
	"upload.max_image_bytes":          20 << 20,
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
