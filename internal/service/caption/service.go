package caption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/caption-api/internal/classify"
	"github.com/phrazzld/caption-api/internal/credential"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/imagemeta"
	"github.com/phrazzld/caption-api/internal/parse"
	"github.com/phrazzld/caption-api/internal/platform/metrics"
	"github.com/phrazzld/caption-api/internal/redact"
	"github.com/phrazzld/caption-api/internal/retry"
	"golang.org/x/sync/errgroup"
)

// Operation names used in logs and metrics.
const (
	OpCaption   = "caption"
	OpImage     = "image_caption"
	OpOCR       = "ocr"
	OpTranslate = "translate"
	OpKeyProbe  = "key_probe"
)

// DefaultMaxImageBytes is the upload limit applied when none is configured.
const DefaultMaxImageBytes int64 = 20 << 20

// Validation messages returned to callers.
const (
	MsgInvalidImage    = "Please upload a valid image file"
	MsgEmptyImage      = "No image file provided"
	MsgMissingText     = "Text to translate is required"
	MsgMissingLanguage = "Target language is required"
)

// Config holds the policy settings of a Service.
type Config struct {
	// Retry applies to caption, image caption and translation calls.
	Retry retry.Config
	// OCRRetry applies to OCR calls.
	OCRRetry retry.Config
	// MaxImageBytes bounds uploaded images.
	MaxImageBytes int64
}

// ImageInput is an uploaded image with its form fields.
type ImageInput struct {
	Data         []byte
	DeclaredMIME string
	Category     string
	Mode         string
}

// ImageResult is the outcome of GenerateFromImage. Exactly one of Caption
// and OCR is set, matching Mode.
type ImageResult struct {
	Mode    generation.ImageMode
	Caption *generation.GenerationResult
	OCR     *generation.OCRResult
	GPS     *generation.GPSData
}

// KeyReport is the outcome of TestKey.
type KeyReport struct {
	Valid    bool                `json:"valid"`
	Issues   []string            `json:"issues"`
	Warnings []string            `json:"warnings"`
	Details  *credential.Details `json:"details,omitempty"`
	// Models is the number of models visible to the key, nil when no remote
	// probe was made.
	Models *int `json:"models,omitempty"`
}

// keyChecker is implemented by providers that can diagnose their own
// credential without network traffic.
type keyChecker interface {
	KeyCheck() credential.Result
}

// Service orchestrates caption generation against a single provider.
type Service struct {
	provider generation.Provider
	executor *retry.Executor
	metrics  *metrics.Recorder
	logger   *slog.Logger
	cfg      Config

	captions parse.CaptionParser
	ocr      parse.OCRParser
}

// NewService creates a Service.
//
// Parameters:
//   - provider: The gateway to the generative AI service (required)
//   - logger: Logger for the service; slog.Default() when nil
//   - rec: Metrics recorder; nil disables metrics
//   - cfg: Retry policies and upload limit
//
// Returns:
//   - A ready Service, or an error when provider is nil
func NewService(
	provider generation.Provider,
	logger *slog.Logger,
	rec *metrics.Recorder,
	cfg Config,
) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider cannot be nil", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}

	logger = logger.With(
		slog.String("component", "caption_service"),
		slog.String("provider", provider.Name()),
	)

	s := &Service{
		provider: provider,
		metrics:  rec,
		logger:   logger,
		cfg:      cfg,
	}
	s.executor = retry.NewExecutor(logger, retry.WithObserver(s.observeAttempt))
	return s, nil
}

// observeAttempt feeds retry outcomes into metrics.
func (s *Service) observeAttempt(_ context.Context, operation string, a retry.Attempt) {
	switch {
	case a.TerminalKind != "":
		s.metrics.IncFailure(operation, string(a.TerminalKind))
	case a.Err != nil:
		s.metrics.IncRetry(operation, string(classify.FromError(a.Err).Kind))
	}
}

// Generate produces a caption and hashtags for a location and/or keyword.
//
// Unparseable provider output is retried once, then replaced by the empty
// default result rather than failing the request.
func (s *Service) Generate(ctx context.Context, raw generation.RawRequest) (generation.GenerationResult, error) {
	req, err := generation.Normalize(raw)
	if err != nil {
		return generation.GenerationResult{}, s.fail(ctx, OpCaption, err)
	}

	s.logger.DebugContext(ctx, "generating caption",
		slog.String("category", string(req.Category)),
		slog.String("mood", string(req.Mood)),
		slog.String("language", req.Language))

	completion := generation.CompletionRequest{
		System:      generation.CaptionSystemPrompt,
		Prompt:      generation.BuildCaptionPrompt(req),
		Temperature: generation.CaptionTemperature,
		MaxTokens:   generation.CaptionMaxTokens,
		JSON:        true,
	}

	res, err := retry.Do(ctx, s.executor, OpCaption, s.cfg.Retry,
		func(ctx context.Context) (generation.GenerationResult, error) {
			out, err := s.provider.Complete(ctx, completion)
			if err != nil {
				return generation.GenerationResult{}, err
			}
			return strictParse(s.captions.Strict, out)
		})
	if err != nil {
		if !isContentParseFailure(ctx, err) {
			return generation.GenerationResult{}, s.fail(ctx, OpCaption, err)
		}
		s.logger.WarnContext(ctx, "caption output unparseable, using default",
			slog.String("error", redact.Error(err)))
		s.metrics.IncFallback("caption")
		res = s.captions.Default()
	}

	res.Mood = req.Mood
	return res, nil
}

// GenerateFromImage produces a caption (content mode) or an OCR result (ocr
// mode) for an uploaded image. GPS coordinates are read from EXIF metadata
// concurrently with the provider call.
func (s *Service) GenerateFromImage(ctx context.Context, in ImageInput) (ImageResult, error) {
	mode, err := generation.ParseImageMode(in.Mode)
	if err != nil {
		return ImageResult{}, s.fail(ctx, OpImage, err)
	}
	if len(in.Data) == 0 {
		return ImageResult{}, s.fail(ctx, OpImage, &generation.ValidationError{Field: "file", Message: MsgEmptyImage})
	}
	if int64(len(in.Data)) > s.cfg.MaxImageBytes {
		return ImageResult{}, s.fail(ctx, OpImage, classify.New(classify.KindPayloadTooLarge,
			fmt.Errorf("image of %d bytes exceeds limit of %d", len(in.Data), s.cfg.MaxImageBytes)))
	}
	mime, ok := imagemeta.DetectMIME(in.Data, in.DeclaredMIME)
	if !ok {
		return ImageResult{}, s.fail(ctx, OpImage, &generation.ValidationError{Field: "file", Message: MsgInvalidImage})
	}

	category := generation.NormalizeCategory(in.Category)
	img := &generation.Image{MIMEType: mime, Data: in.Data}
	out := ImageResult{Mode: mode}

	s.logger.DebugContext(ctx, "generating from image",
		slog.String("mode", string(mode)),
		slog.String("mime", mime),
		slog.Int("size", len(in.Data)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.GPS = imagemeta.GPS(in.Data)
		return nil
	})
	g.Go(func() error {
		var err error
		if mode == generation.ImageModeOCR {
			out.OCR, err = s.extractText(gctx, img)
		} else {
			out.Caption, err = s.captionImage(gctx, img, category)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		op := OpImage
		if mode == generation.ImageModeOCR {
			op = OpOCR
		}
		return ImageResult{}, s.fail(ctx, op, err)
	}

	return out, nil
}

func (s *Service) captionImage(
	ctx context.Context,
	img *generation.Image,
	category generation.Category,
) (*generation.GenerationResult, error) {
	completion := generation.CompletionRequest{
		Prompt:      generation.BuildImagePrompt(category),
		Image:       img,
		Temperature: generation.CaptionTemperature,
		MaxTokens:   generation.VisionMaxTokens,
	}

	res, err := retry.Do(ctx, s.executor, OpImage, s.cfg.Retry,
		func(ctx context.Context) (generation.GenerationResult, error) {
			out, err := s.provider.Complete(ctx, completion)
			if err != nil {
				return generation.GenerationResult{}, err
			}
			return strictParse(s.captions.Strict, out)
		})
	if err != nil {
		if !isContentParseFailure(ctx, err) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "image caption output unparseable, using default")
		s.metrics.IncFallback("caption")
		res = s.captions.Default()
	}
	return &res, nil
}

func (s *Service) extractText(ctx context.Context, img *generation.Image) (*generation.OCRResult, error) {
	completion := generation.CompletionRequest{
		Prompt:      generation.OCRPrompt,
		Image:       img,
		Temperature: generation.OCRTemperature,
		MaxTokens:   generation.VisionMaxTokens,
		JSON:        true,
	}

	res, err := retry.Do(ctx, s.executor, OpOCR, s.cfg.OCRRetry,
		func(ctx context.Context) (generation.OCRResult, error) {
			out, err := s.provider.Complete(ctx, completion)
			if err != nil {
				return generation.OCRResult{}, err
			}
			return strictParse(s.ocr.Strict, out)
		})
	if err != nil {
		if !isContentParseFailure(ctx, err) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "OCR output unparseable, using default")
		s.metrics.IncFallback("ocr")
		res = s.ocr.Default()
	}
	return &res, nil
}

// Translate renders text in the target language. Known ISO-639-1 codes are
// expanded to language names; anything else is passed through as given.
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	text = strings.TrimSpace(text)
	targetLanguage = strings.TrimSpace(targetLanguage)
	if text == "" {
		return "", s.fail(ctx, OpTranslate, &generation.ValidationError{Field: "text", Message: MsgMissingText})
	}
	if targetLanguage == "" {
		return "", s.fail(ctx, OpTranslate, &generation.ValidationError{Field: "targetLanguage", Message: MsgMissingLanguage})
	}

	target := targetLanguage
	if name, ok := generation.LookupLanguage(target); ok {
		target = name
	}

	completion := generation.CompletionRequest{
		System:      generation.BuildTranslateSystemPrompt(target),
		Prompt:      text,
		Temperature: generation.TranslateTemperature,
		MaxTokens:   generation.TranslateMaxTokens,
	}

	translated, err := retry.Do(ctx, s.executor, OpTranslate, s.cfg.Retry,
		func(ctx context.Context) (string, error) {
			out, err := s.provider.Complete(ctx, completion)
			if err != nil {
				return "", err
			}
			out = strings.TrimSpace(parse.StripCodeFences(out))
			if out == "" {
				return "", generation.ErrEmptyResponse
			}
			return out, nil
		})
	if err != nil {
		return "", s.fail(ctx, OpTranslate, err)
	}
	return translated, nil
}

// TestKey diagnoses the provider credential. The remote probe runs only when
// the local shape check passes, so a malformed key never leaves the process.
// A rejected remote probe is reported in the result, not as an error; only
// transport level failures and cancellation are returned as errors.
func (s *Service) TestKey(ctx context.Context) (KeyReport, error) {
	report := KeyReport{Valid: true, Issues: []string{}, Warnings: []string{}}

	if kc, ok := s.provider.(keyChecker); ok {
		local := kc.KeyCheck()
		details := local.Details
		report.Valid = local.Valid
		report.Issues = append(report.Issues, local.Issues...)
		report.Warnings = append(report.Warnings, local.Warnings...)
		report.Details = &details

		s.logger.InfoContext(ctx, "checked key shape",
			slog.Bool("valid", local.Valid),
			slog.String("details", details.String()))

		if !local.Valid {
			return report, nil
		}
	}

	prober, ok := s.provider.(generation.KeyProber)
	if !ok {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Remote key verification is not supported for provider %s", s.provider.Name()))
		return report, nil
	}

	probe, err := prober.VerifyKey(ctx)
	if err != nil {
		var perr *generation.ProviderError
		if errors.As(err, &perr) {
			report.Valid = false
			report.Issues = append(report.Issues, perr.Reason().Describe())
			s.logger.WarnContext(ctx, "remote key check rejected",
				slog.Int("status", perr.Status),
				slog.String("reason", string(perr.Reason())))
			return report, nil
		}
		return KeyReport{}, s.fail(ctx, OpKeyProbe, err)
	}

	models := probe.ModelCount
	report.Models = &models
	return report, nil
}

// fail classifies err, logs it redacted and returns the classified error.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	ce := classify.FromError(err)
	level := slog.LevelWarn
	if ce.HTTPStatus >= 500 {
		level = slog.LevelError
	} else if ce.Kind == classify.KindValidation {
		level = slog.LevelDebug
	}
	s.logger.Log(ctx, level, "operation failed",
		slog.String("operation", op),
		slog.String("kind", string(ce.Kind)),
		slog.Int("upstream_status", ce.UpstreamStatus),
		slog.String("error", redact.Error(err)))
	return ce
}

// strictParse wraps a parser failure as PARSE_FAILURE so the retry policy
// grants it a single extra attempt.
func strictParse[T any](parseFn func(string) (T, error), raw string) (T, error) {
	res, err := parseFn(raw)
	if err != nil {
		return res, classify.New(classify.KindParseFailure, err)
	}
	return res, nil
}

// isContentParseFailure reports whether err came from parsing the model's
// content, as opposed to the provider's response envelope. Cancellation is
// never treated as a parse failure.
func isContentParseFailure(ctx context.Context, err error) bool {
	return ctx.Err() == nil && errors.Is(err, parse.ErrUnparseable)
}
