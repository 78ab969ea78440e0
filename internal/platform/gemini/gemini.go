package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/caption-api/internal/config"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/platform/metrics"
	"github.com/phrazzld/caption-api/internal/redact"
	"google.golang.org/genai"
)

// ProviderName identifies this gateway in logs, metrics and errors.
const ProviderName = "gemini"

// contentGenerator is the subset of *genai.Models used by Client.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client implements generation.Provider using the Gemini API.
type Client struct {
	// logger is used for structured logging
	logger *slog.Logger

	// models issues GenerateContent calls
	models contentGenerator

	// model and visionModel are the Gemini model names for text and image prompts
	model       string
	visionModel string

	metrics *metrics.Recorder
}

var _ generation.Provider = (*Client)(nil)

// NewClient creates a new Gemini Client.
//
// Parameters:
//   - ctx: Context for client construction
//   - logger: A structured logger for operation logging
//   - cfg: Provider configuration containing API key, model names and timeout
//   - rec: Metrics recorder, may be nil
//
// Returns:
//   - A properly initialized Client or an error if initialization fails
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.ProviderConfig, rec *metrics.Recorder) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newWithModels(logger, client.Models, cfg, rec), nil
}

func newWithModels(logger *slog.Logger, models contentGenerator, cfg config.ProviderConfig, rec *metrics.Recorder) *Client {
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	return &Client{
		logger:      logger.With("provider", ProviderName),
		models:      models,
		model:       cfg.Model,
		visionModel: visionModel,
		metrics:     rec,
	}
}

// Name implements generation.Provider.
func (c *Client) Name() string {
	return ProviderName
}

// Complete implements generation.Provider with a single GenerateContent call.
func (c *Client) Complete(ctx context.Context, req generation.CompletionRequest) (text string, err error) {
	model := c.model
	op := "chat"
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Image != nil {
		model = c.visionModel
		op = "vision"
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: req.Image.MIMEType,
			Data:     req.Image.Data,
		}})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	genConfig := &genai.GenerateContentConfig{
		Temperature: ptr(req.Temperature),
	}
	if req.System != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	start := time.Now()
	defer func() {
		c.metrics.ObserveProviderCall(ProviderName, op, err, time.Since(start))
	}()

	c.logger.DebugContext(ctx, "Calling provider", "op", op, "model", model)

	resp, err := c.models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		perr := toProviderError(err)
		if perr == nil {
			return "", fmt.Errorf("%s request failed: %w", ProviderName, err)
		}
		c.logger.WarnContext(ctx, "Provider returned error",
			"op", op,
			"status", perr.Status,
			"error", redact.String(perr.Message))
		return "", perr
	}

	text = extractText(resp)
	if text == "" {
		return "", generation.ErrEmptyResponse
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// errContextDone reports whether err came from the caller's context rather than the API.
func errContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func ptr[T any](v T) *T {
	return &v
}
