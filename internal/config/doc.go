// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, an optional config.yaml).
// Every setting has a default; environment variables use the CAPTION_ prefix,
// for example CAPTION_PROVIDER_API_KEY or CAPTION_RETRY_MAX_ATTEMPTS.
package config
