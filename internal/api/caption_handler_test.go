package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/phrazzld/caption-api/internal/api/shared"
	"github.com/phrazzld/caption-api/internal/classify"
	"github.com/phrazzld/caption-api/internal/credential"
	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/phrazzld/caption-api/internal/service/caption"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCaptionService is a function-field test double for CaptionService.
type mockCaptionService struct {
	GenerateFn          func(ctx context.Context, raw generation.RawRequest) (generation.GenerationResult, error)
	GenerateFromImageFn func(ctx context.Context, in caption.ImageInput) (caption.ImageResult, error)
	TranslateFn         func(ctx context.Context, text, target string) (string, error)
	TestKeyFn           func(ctx context.Context) (caption.KeyReport, error)
}

func (m *mockCaptionService) Generate(ctx context.Context, raw generation.RawRequest) (generation.GenerationResult, error) {
	return m.GenerateFn(ctx, raw)
}

func (m *mockCaptionService) GenerateFromImage(ctx context.Context, in caption.ImageInput) (caption.ImageResult, error) {
	return m.GenerateFromImageFn(ctx, in)
}

func (m *mockCaptionService) Translate(ctx context.Context, text, target string) (string, error) {
	return m.TranslateFn(ctx, text, target)
}

func (m *mockCaptionService) TestKey(ctx context.Context) (caption.KeyReport, error) {
	return m.TestKeyFn(ctx)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func multipartRequest(t *testing.T, fields map[string]string, fileContentType string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="photo.png"`)
		h.Set("Content-Type", fileContentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/generate-with-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNewCaptionHandler_PanicsWithoutService(t *testing.T) {
	assert.Panics(t, func() { NewCaptionHandler(nil, 0, nil) })
}

func TestCaptionHandler_Generate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got generation.RawRequest
		svc := &mockCaptionService{
			GenerateFn: func(_ context.Context, raw generation.RawRequest) (generation.GenerationResult, error) {
				got = raw
				return generation.GenerationResult{
					Caption:  "Golden hour in Lisbon",
					Hashtags: []string{"lisbon", "travel"},
					Mood:     generation.MoodCasual,
				}, nil
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/generate",
			strings.NewReader(`{"location":"Lisbon","category":"travel"}`))
		w := httptest.NewRecorder()
		h.Generate(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Lisbon", got.Location)
		assert.Equal(t, "travel", got.Category)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Golden hour in Lisbon", body["caption"])
		assert.Equal(t, []interface{}{"lisbon", "travel"}, body["hashtags"])
		assert.Equal(t, "casual", body["mood"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("malformed body", func(t *testing.T) {
		h := NewCaptionHandler(&mockCaptionService{}, 0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"location":`))
		w := httptest.NewRecorder()
		h.Generate(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["success"])
	})

	t.Run("classified service error", func(t *testing.T) {
		svc := &mockCaptionService{
			GenerateFn: func(context.Context, generation.RawRequest) (generation.GenerationResult, error) {
				return generation.GenerationResult{}, classify.FromError(
					&generation.ValidationError{Field: "input", Message: generation.MsgMissingInput})
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		h.Generate(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, generation.MsgMissingInput, body["error"])
	})

	t.Run("rate limited upstream", func(t *testing.T) {
		svc := &mockCaptionService{
			GenerateFn: func(context.Context, generation.RawRequest) (generation.GenerationResult, error) {
				return generation.GenerationResult{}, &generation.ProviderError{Provider: "openai", Status: 429, RetryAfter: 30}
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"keyword":"tea"}`))
		w := httptest.NewRecorder()
		h.Generate(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "30", w.Header().Get("Retry-After"))
		assert.Equal(t, float64(30), decodeBody(t, w)["retryAfter"])
	})
}

func TestCaptionHandler_GenerateWithImage(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("content mode", func(t *testing.T) {
		var got caption.ImageInput
		svc := &mockCaptionService{
			GenerateFromImageFn: func(_ context.Context, in caption.ImageInput) (caption.ImageResult, error) {
				got = in
				return caption.ImageResult{
					Mode:    generation.ImageModeContent,
					Caption: &generation.GenerationResult{Caption: "Brunch", Hashtags: []string{"food"}},
					GPS:     &generation.GPSData{Latitude: 38.7, Longitude: -9.1},
				}, nil
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		req := multipartRequest(t, map[string]string{"category": "food"}, "image/png", image)
		w := httptest.NewRecorder()
		h.GenerateWithImage(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, image, got.Data)
		assert.Equal(t, "image/png", got.DeclaredMIME)
		assert.Equal(t, "food", got.Category)
		assert.Empty(t, got.Mode)

		var body ImageCaptionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "Brunch", body.Caption)
		require.NotNil(t, body.GPSData)
		assert.InDelta(t, 38.7, body.GPSData.Latitude, 0.0001)
	})

	t.Run("ocr mode", func(t *testing.T) {
		svc := &mockCaptionService{
			GenerateFromImageFn: func(_ context.Context, in caption.ImageInput) (caption.ImageResult, error) {
				assert.Equal(t, "ocr", in.Mode)
				return caption.ImageResult{
					Mode: generation.ImageModeOCR,
					OCR:  &generation.OCRResult{Text: "EXIT", Blocks: []generation.TextBlock{}},
				}, nil
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		req := multipartRequest(t, map[string]string{"mode": "ocr"}, "image/png", image)
		w := httptest.NewRecorder()
		h.GenerateWithImage(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.NotContains(t, body, "gps_data")
		ocr, ok := body["ocr"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "EXIT", ocr["text"])
	})

	t.Run("missing file", func(t *testing.T) {
		h := NewCaptionHandler(&mockCaptionService{}, 0, nil)

		req := multipartRequest(t, map[string]string{"category": "food"}, "", nil)
		w := httptest.NewRecorder()
		h.GenerateWithImage(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, caption.MsgEmptyImage, decodeBody(t, w)["error"])
	})

	t.Run("file over limit", func(t *testing.T) {
		h := NewCaptionHandler(&mockCaptionService{}, 16, nil)

		req := multipartRequest(t, nil, "image/png", append(image, make([]byte, 64)...))
		w := httptest.NewRecorder()
		h.GenerateWithImage(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, classify.MsgPayloadTooLarge, decodeBody(t, w)["error"])
	})

	t.Run("body over limit", func(t *testing.T) {
		h := NewCaptionHandler(&mockCaptionService{}, 16, nil)

		req := multipartRequest(t, nil, "image/png", make([]byte, multipartOverhead+1024))
		w := httptest.NewRecorder()
		h.GenerateWithImage(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		h := NewCaptionHandler(&mockCaptionService{}, 0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/generate-with-image", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.GenerateWithImage(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCaptionHandler_Translate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockCaptionService{
			TranslateFn: func(_ context.Context, text, target string) (string, error) {
				assert.Equal(t, "Good morning", text)
				assert.Equal(t, "fr", target)
				return "Bonjour", nil
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/translate",
			strings.NewReader(`{"text":"Good morning","targetLanguage":"fr"}`))
		w := httptest.NewRecorder()
		h.Translate(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body TranslateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "Bonjour", body.TranslatedText)
	})

	t.Run("missing target language", func(t *testing.T) {
		h := NewCaptionHandler(&mockCaptionService{}, 0, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(`{"text":"Hi"}`))
		w := httptest.NewRecorder()
		h.Translate(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid TargetLanguage: required field", decodeBody(t, w)["error"])
	})
}

func TestCaptionHandler_TestKey(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		models := 12
		svc := &mockCaptionService{
			TestKeyFn: func(context.Context) (caption.KeyReport, error) {
				return caption.KeyReport{
					Valid:    true,
					Issues:   []string{},
					Warnings: []string{},
					Details:  &credential.Details{Type: credential.TypeProject, Prefix: "sk-proj"},
					Models:   &models,
				}, nil
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		w := httptest.NewRecorder()
		h.TestKey(w, httptest.NewRequest(http.MethodGet, "/api/test-key", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, float64(12), body["models"])
		details, ok := body["details"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "project", details["type"])
	})

	t.Run("invalid key is still a 200 report", func(t *testing.T) {
		svc := &mockCaptionService{
			TestKeyFn: func(context.Context) (caption.KeyReport, error) {
				return caption.KeyReport{Valid: false, Issues: []string{"API key is empty"}, Warnings: []string{}}, nil
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		w := httptest.NewRecorder()
		h.TestKey(w, httptest.NewRequest(http.MethodGet, "/api/test-key", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, []interface{}{"API key is empty"}, body["issues"])
		assert.NotContains(t, body, "models")
	})

	t.Run("probe failure", func(t *testing.T) {
		svc := &mockCaptionService{
			TestKeyFn: func(context.Context) (caption.KeyReport, error) {
				return caption.KeyReport{}, classify.New(classify.KindServiceUnavailable, nil)
			},
		}
		h := NewCaptionHandler(svc, 0, nil)

		w := httptest.NewRecorder()
		h.TestKey(w, httptest.NewRequest(http.MethodGet, "/api/test-key", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body shared.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, classify.MsgServiceUnavailable, body.Error)
	})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health("openai")(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "openai", body["provider"])
}
