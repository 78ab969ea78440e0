package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/caption-api/internal/api/shared"
	"github.com/phrazzld/caption-api/internal/classify"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on their classification. This prevents leaking internal error types
// or messages to clients.
func MapErrorToStatusCode(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	return classify.FromError(err).HTTPStatus
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error classification. Provider text never reaches clients;
// only validation messages, which we author, are passed through.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return classify.MsgUnknown
	}
	return classify.FromError(err).UserMessage
}

// HandleAPIError classifies err and writes the matching error envelope,
// including the Retry-After hint for rate limits. The error is logged after
// redaction.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	ce := classify.FromError(err)
	if ce == nil {
		ce = classify.New(classify.KindUnknown, nil)
	}

	opts := []shared.ResponseOption{shared.WithRetryAfter(ce.RetryAfterSeconds)}
	if ce.Kind == classify.KindAuth {
		// A rejected credential is an operator problem, not a caller one.
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, ce.HTTPStatus, ce.UserMessage, err, opts...)
}

// HandleValidationError writes a 400 envelope for a request that failed
// struct validation.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'TranslateRequest.Text' Error:Field validation for 'Text' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
