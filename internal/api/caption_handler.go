package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/caption-api/internal/api/shared"
	"github.com/phrazzld/caption-api/internal/classify"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/service/caption"
)

// multipartOverhead is the allowance for form fields and boundaries on top of
// the image limit.
const multipartOverhead = 1 << 20

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// CaptionService is the set of use cases served over HTTP.
type CaptionService interface {
	Generate(ctx context.Context, raw generation.RawRequest) (generation.GenerationResult, error)
	GenerateFromImage(ctx context.Context, in caption.ImageInput) (caption.ImageResult, error)
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	TestKey(ctx context.Context) (caption.KeyReport, error)
}

// CaptionHandler handles caption related HTTP requests.
type CaptionHandler struct {
	service       CaptionService
	maxImageBytes int64
	logger        *slog.Logger
}

// NewCaptionHandler creates a new CaptionHandler.
// A non-positive maxImageBytes falls back to caption.DefaultMaxImageBytes.
func NewCaptionHandler(service CaptionService, maxImageBytes int64, logger *slog.Logger) *CaptionHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if maxImageBytes <= 0 {
		maxImageBytes = caption.DefaultMaxImageBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptionHandler{
		service:       service,
		maxImageBytes: maxImageBytes,
		logger:        logger.With(slog.String("component", "caption_handler")),
	}
}

// Generate handles POST /api/generate requests.
func (h *CaptionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	result, err := h.service.Generate(r.Context(), generation.RawRequest{
		Location: req.Location,
		Keyword:  req.Keyword,
		Category: req.Category,
		Mood:     req.Mood,
		Language: req.Language,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "caption generated",
		slog.Int("hashtags", len(result.Hashtags)),
		slog.Bool("fallback", result.Fallback))

	shared.RespondWithJSON(w, r, http.StatusOK, GenerateResponse{
		Success:   true,
		Caption:   result.Caption,
		Hashtags:  result.Hashtags,
		Mood:      result.Mood,
		Timestamp: shared.Timestamp(),
	})
}

// GenerateWithImage handles POST /api/generate-with-image multipart uploads.
// Form fields: file (required), category, mode (content or ocr).
func (h *CaptionHandler) GenerateWithImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			HandleAPIError(w, r, classify.New(classify.KindPayloadTooLarge, err))
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, caption.MsgEmptyImage, err)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxImageBytes {
		HandleAPIError(w, r, classify.New(classify.KindPayloadTooLarge, nil))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}

	result, err := h.service.GenerateFromImage(r.Context(), caption.ImageInput{
		Data:         data,
		DeclaredMIME: header.Header.Get("Content-Type"),
		Category:     r.FormValue("category"),
		Mode:         r.FormValue("mode"),
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	if result.Mode == generation.ImageModeOCR {
		shared.RespondWithJSON(w, r, http.StatusOK, ImageOCRResponse{
			Success:   true,
			OCR:       result.OCR,
			GPSData:   result.GPS,
			Timestamp: shared.Timestamp(),
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ImageCaptionResponse{
		Success:   true,
		Caption:   result.Caption.Caption,
		Hashtags:  result.Caption.Hashtags,
		GPSData:   result.GPS,
		Timestamp: shared.Timestamp(),
	})
}

// Translate handles POST /api/translate requests.
func (h *CaptionHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	translated, err := h.service.Translate(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TranslateResponse{
		Success:        true,
		TranslatedText: translated,
		Timestamp:      shared.Timestamp(),
	})
}

// TestKey handles GET /api/test-key requests. A diagnosed key is always
// reported with 200; only failures to run the diagnosis produce an error
// envelope.
func (h *CaptionHandler) TestKey(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.TestKey(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TestKeyResponse{
		Success:   report.Valid,
		Valid:     report.Valid,
		Issues:    report.Issues,
		Warnings:  report.Warnings,
		Details:   report.Details,
		Models:    report.Models,
		Timestamp: shared.Timestamp(),
	})
}

// isBodyTooLarge reports whether err was caused by http.MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// Health handles GET /health requests.
func Health(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
			Status:    "ok",
			Provider:  provider,
			Timestamp: shared.Timestamp(),
		})
	}
}
