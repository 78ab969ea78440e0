package api

import (
	"github.com/phrazzld/caption-api/internal/credential"
	"github.com/phrazzld/caption-api/internal/generation"
)

// Common request/response structures

// GenerateRequest defines the payload for the caption generation endpoint.
// At least one of Location and Keyword must be set; the service enforces it.
type GenerateRequest struct {
	Location string `json:"location"`
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Mood     string `json:"mood"`
	Language string `json:"language"`
}

// GenerateResponse defines the successful response for caption generation.
type GenerateResponse struct {
	Success   bool            `json:"success"`
	Caption   string          `json:"caption"`
	Hashtags  []string        `json:"hashtags"`
	Mood      generation.Mood `json:"mood,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// ImageCaptionResponse defines the successful response for content mode
// image uploads.
type ImageCaptionResponse struct {
	Success   bool                `json:"success"`
	Caption   string              `json:"caption"`
	Hashtags  []string            `json:"hashtags"`
	GPSData   *generation.GPSData `json:"gps_data,omitempty"`
	Timestamp string              `json:"timestamp"`
}

// ImageOCRResponse defines the successful response for ocr mode image uploads.
type ImageOCRResponse struct {
	Success   bool                  `json:"success"`
	OCR       *generation.OCRResult `json:"ocr"`
	GPSData   *generation.GPSData   `json:"gps_data,omitempty"`
	Timestamp string                `json:"timestamp"`
}

// TranslateRequest defines the payload for the translation endpoint.
type TranslateRequest struct {
	Text           string `json:"text"           validate:"required"`
	TargetLanguage string `json:"targetLanguage" validate:"required,min=2,max=35"`
}

// TranslateResponse defines the successful response for translation.
type TranslateResponse struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translatedText"`
	Timestamp      string `json:"timestamp"`
}

// TestKeyResponse defines the response for the credential diagnosis endpoint.
// Success mirrors Valid so clients can treat it like any other envelope.
type TestKeyResponse struct {
	Success   bool                `json:"success"`
	Valid     bool                `json:"valid"`
	Issues    []string            `json:"issues"`
	Warnings  []string            `json:"warnings"`
	Details   *credential.Details `json:"details,omitempty"`
	Models    *int                `json:"models,omitempty"`
	Timestamp string              `json:"timestamp"`
}

// HealthResponse defines the response for the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	Timestamp string `json:"timestamp"`
}
