package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/caption-api/internal/classify"
	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/credential"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/platform/metrics"
	"github.com/phrazzld/caption-api/internal/redact"
)

// ProviderName identifies this gateway in logs, metrics and errors.
const ProviderName = "openai"

const (
	maxResponseBytes = 4 << 20
	maxErrorSnippet  = 512
)

// ErrInvalidCredential is returned when the configured key fails the local shape check.
var ErrInvalidCredential = errors.New("invalid API key format")

// Client calls the OpenAI API. It is safe for concurrent use; apart from its
// configuration it holds no state.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	visionModel string
	keyCheck    credential.Result
	logger      *slog.Logger
	metrics     *metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records every call into rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = rec }
}

var _ generation.Provider = (*Client)(nil)
var _ generation.KeyProber = (*Client)(nil)

// NewClient creates a Client from cfg. A malformed key does not prevent
// construction; it is reported in the logs and fails each call locally.
//
// Parameters:
//   - logger: Logger for client events
//   - cfg: Provider settings (key, base URL, models, per-call timeout)
//   - opts: Optional overrides
//
// Returns:
//   - A configured Client
//   - An error wrapping generation.ErrInvalidConfig when cfg is unusable
func NewClient(logger *slog.Logger, cfg config.ProviderConfig, opts ...Option) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		visionModel: visionModel,
		keyCheck:    credential.Validate(cfg.APIKey),
		logger:      logger.With("provider", ProviderName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.keyCheck.Valid {
		c.logger.Warn("API key failed local validation",
			"issues", c.keyCheck.Issues,
			"key", c.keyCheck.Details.String())
	}
	for _, w := range c.keyCheck.Warnings {
		c.logger.Warn("API key warning", "warning", w)
	}

	return c, nil
}

// Name implements generation.Provider.
func (c *Client) Name() string {
	return ProviderName
}

// KeyCheck returns the local validation result for the configured key.
func (c *Client) KeyCheck() credential.Result {
	return c.keyCheck
}

// Complete implements generation.Provider with a single chat completion call.
func (c *Client) Complete(ctx context.Context, req generation.CompletionRequest) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}

	body := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	if req.Image != nil {
		body.Model = c.visionModel
		body.Messages = append(body.Messages, chatMessage{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: DataURL(req.Image)}},
			},
		})
	} else {
		body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode request: %v", generation.ErrGenerationFailed, err)
	}

	op := "chat"
	if req.Image != nil {
		op = "vision"
	}

	var resp chatResponse
	if err := c.do(ctx, op, http.MethodPost, "/chat/completions", payload, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", generation.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// VerifyKey implements generation.KeyProber by listing the available models.
func (c *Client) VerifyKey(ctx context.Context) (generation.KeyProbeResult, error) {
	if err := c.checkKey(); err != nil {
		return generation.KeyProbeResult{}, err
	}

	var resp modelsResponse
	if err := c.do(ctx, "models", http.MethodGet, "/models", nil, &resp); err != nil {
		return generation.KeyProbeResult{}, err
	}
	return generation.KeyProbeResult{ModelCount: len(resp.Data)}, nil
}

func (c *Client) checkKey() error {
	if c.keyCheck.Valid {
		return nil
	}
	return classify.New(classify.KindAuth,
		fmt.Errorf("%w: %s", ErrInvalidCredential, strings.Join(c.keyCheck.Issues, "; ")))
}

// do issues one request and decodes a successful JSON answer into out.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveProviderCall(ProviderName, op, err, time.Since(start))
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %v", generation.ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "Calling provider", "op", op, "path", path)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := parseError(resp)
		c.logger.WarnContext(ctx, "Provider returned error",
			"op", op,
			"status", perr.Status,
			"type", perr.Type,
			"error", redact.String(perr.Message))
		return perr
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", ProviderName, err)
	}
	return nil
}

// parseError builds a ProviderError from a non-success response. Bodies that
// are not the documented {"error": {...}} shape are kept as a short snippet.
func parseError(resp *http.Response) *generation.ProviderError {
	perr := &generation.ProviderError{
		Provider:   ProviderName,
		Status:     resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		perr.Message = body.Error.Message
		perr.Type = body.Error.Type
		if body.Error.Code != nil {
			perr.Code = fmt.Sprint(body.Error.Code)
		}
		return perr
	}

	perr.Message = snippet(raw)
	if perr.Message == "" {
		perr.Message = http.StatusText(resp.StatusCode)
	}
	return perr
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}

// parseRetryAfter reads a Retry-After header given either in seconds or as an HTTP date.
func parseRetryAfter(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return secs
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return int(d.Round(time.Second) / time.Second)
		}
	}
	return 0
}

// DataURL encodes an image as a data URL suitable for image_url parts.
func DataURL(img *generation.Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
