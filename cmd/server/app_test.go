package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/phrazzld/caption-api/internal/api/middleware"
	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "sk-proj-abcdefghijklmnopqrstuvwxyz0123456789ABCDEF"

// newTestConfig returns a valid configuration pointing the OpenAI gateway at baseURL.
func newTestConfig(baseURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "debug",
			RequestsPerSecond:      100,
			Burst:                  100,
			ShutdownTimeoutSeconds: 1,
		},
		Provider: config.ProviderConfig{
			Name:           "openai",
			APIKey:         testAPIKey,
			BaseURL:        baseURL,
			Model:          "gpt-4-turbo-preview",
			VisionModel:    "gpt-4o",
			TimeoutSeconds: 5,
		},
		Retry: config.RetryConfig{
			MaxAttempts:       2,
			InitialDelayMs:    1,
			OCRMaxAttempts:    2,
			OCRInitialDelayMs: 1,
		},
		Upload: config.UploadConfig{MaxImageBytes: 20 << 20},
	}
}

// fakeOpenAI serves canned chat completion and model list answers.
func fakeOpenAI(t *testing.T, content string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat/completions":
			resp := map[string]any{
				"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
			}
			_ = json.NewEncoder(w).Encode(resp)
		case "/models":
			_, _ = io.WriteString(w, `{"data":[{"id":"gpt-4o"},{"id":"gpt-4-turbo-preview"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	log, _ := logger.NewTestLogger()
	app, err := newApplication(context.Background(), cfg, log)
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := newApplication(context.Background(), nil, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("openai provider", func(t *testing.T) {
		app := newTestApp(t, newTestConfig("http://127.0.0.1:1"))
		assert.Equal(t, "openai", app.provider.Name())
		assert.NotNil(t, app.captionService)
	})

	t.Run("gemini without key fails", func(t *testing.T) {
		cfg := newTestConfig("https://generativelanguage.googleapis.com")
		cfg.Provider.Name = "gemini"
		cfg.Provider.APIKey = ""
		_, err := newApplication(context.Background(), cfg, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := newTestConfig("http://127.0.0.1:1")
		cfg.Provider.Name = "mystery"
		_, err := newApplication(context.Background(), cfg, nil)
		require.Error(t, err)
	})
}

func TestRouter(t *testing.T) {
	var calls int32
	upstream := fakeOpenAI(t, `{"caption":"Morning light over the bay","hashtags":["sunrise","#bay"]}`, &calls)
	app := newTestApp(t, newTestConfig(upstream.URL))
	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	t.Run("generate end to end", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/generate", "application/json",
			strings.NewReader(`{"location":"San Francisco","mood":"inspirational"}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Morning light over the bay", body["caption"])
		assert.Equal(t, []any{"sunrise", "bay"}, body["hashtags"])
		assert.Equal(t, "inspirational", body["mood"])
	})

	t.Run("validation error envelope", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, generation.MsgMissingInput, body["error"])
		assert.Len(t, body["traceId"], 32)
		assert.Equal(t, body["traceId"], resp.Header.Get(middleware.TraceHeader))
	})

	t.Run("test key", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/test-key")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, float64(2), body["models"])
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "caption_api_provider_requests_total")
		assert.Contains(t, string(raw), `route="/api/generate"`)
	})
}

func TestRouter_RateLimited(t *testing.T) {
	var calls int32
	upstream := fakeOpenAI(t, `{"caption":"x","hashtags":[]}`, &calls)
	cfg := newTestConfig(upstream.URL)
	cfg.Server.RequestsPerSecond = 0.01
	cfg.Server.Burst = 1
	app := newTestApp(t, cfg)
	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	first, err := http.Get(srv.URL + "/api/test-key")
	require.NoError(t, err)
	_ = first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(srv.URL + "/api/test-key")
	require.NoError(t, err)
	defer func() { _ = second.Body.Close() }()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.NotEmpty(t, second.Header.Get("Retry-After"))

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
