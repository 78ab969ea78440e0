package generation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/caption-api/internal/classify"
)

// Common errors returned by the generation package and its providers
var (
	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrEmptyResponse is returned when the provider answers without any content
	ErrEmptyResponse = errors.New("no content generated")

	// ErrInvalidConfig is returned when a provider configuration is invalid
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrUnsupportedImage is returned when an uploaded file is not an image
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// ValidationError reports caller input that cannot be used to build a request.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements error. The message is safe to show to callers.
func (e *ValidationError) Error() string {
	return e.Message
}

// ErrorKind classifies every ValidationError as VALIDATION.
func (e *ValidationError) ErrorKind() classify.Kind {
	return classify.KindValidation
}

// Reason is the coarse category of an upstream HTTP failure.
type Reason string

const (
	ReasonInvalidKey      Reason = "invalid_key"
	ReasonForbidden       Reason = "insufficient_permission"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonUnavailable     Reason = "service_unavailable"
	ReasonPayloadTooLarge Reason = "payload_too_large"
	ReasonUnknown         Reason = "unknown"
)

// ProviderError is a non-success answer from a provider. Message is raw
// upstream text and must only be logged after redaction.
type ProviderError struct {
	Provider string
	Status   int
	Type     string
	Code     string
	Message  string
	// RetryAfter is the provider supplied retry hint in seconds, zero if absent.
	RetryAfter int
}

// Error implements error.
func (e *ProviderError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s API error (status %d, type %s): %s", e.Provider, e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Message)
}

// StatusCode returns the upstream HTTP status.
func (e *ProviderError) StatusCode() int {
	return e.Status
}

// RetryAfterSeconds returns the provider supplied retry hint.
func (e *ProviderError) RetryAfterSeconds() int {
	return e.RetryAfter
}

// Reason maps the upstream status to a Reason.
func (e *ProviderError) Reason() Reason {
	switch e.Status {
	case http.StatusUnauthorized:
		return ReasonInvalidKey
	case http.StatusForbidden:
		return ReasonForbidden
	case http.StatusTooManyRequests:
		return ReasonRateLimited
	case http.StatusServiceUnavailable:
		return ReasonUnavailable
	case http.StatusRequestEntityTooLarge:
		return ReasonPayloadTooLarge
	default:
		return ReasonUnknown
	}
}

// Describe returns a short operator-facing description of a reason.
func (r Reason) Describe() string {
	switch r {
	case ReasonInvalidKey:
		return "Authentication failed: Invalid API key"
	case ReasonForbidden:
		return "Authorization failed: Insufficient permissions"
	case ReasonRateLimited:
		return "Rate limit exceeded"
	case ReasonUnavailable:
		return "Service temporarily unavailable"
	case ReasonPayloadTooLarge:
		return "Request payload too large"
	default:
		return "Unexpected provider response"
	}
}
