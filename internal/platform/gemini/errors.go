package gemini

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/caption-api/internal/generation"
	"google.golang.org/genai"
)

// apiErrorPattern matches the text of API errors that reach us wrapped in a
// plain error, for example
// "Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED, Details: []".
var apiErrorPattern = regexp.MustCompile(`Error (\d{3}), Message: (.*), Status: ([A-Z_]*), Details:`)

// statusByCode maps gRPC style status names to HTTP statuses for errors that
// carry no numeric code.
var statusByCode = map[string]int{
	"UNAUTHENTICATED":    http.StatusUnauthorized,
	"PERMISSION_DENIED":  http.StatusForbidden,
	"RESOURCE_EXHAUSTED": http.StatusTooManyRequests,
	"UNAVAILABLE":        http.StatusServiceUnavailable,
}

// toProviderError recovers the upstream status from a genai error. It returns
// nil for transport failures and context cancellation, which carry no status.
func toProviderError(err error) *generation.ProviderError {
	if err == nil || errContextDone(err) {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(apiErr.Code, apiErr.Status, apiErr.Message)
	}

	msg := err.Error()
	if m := apiErrorPattern.FindStringSubmatch(msg); m != nil {
		status, _ := strconv.Atoi(m[1])
		return newProviderError(status, m[3], m[2])
	}

	for name, status := range statusByCode {
		if strings.Contains(msg, name) {
			return &generation.ProviderError{
				Provider: ProviderName,
				Status:   status,
				Type:     name,
				Message:  msg,
			}
		}
	}
	return nil
}

func newProviderError(status int, kind, message string) *generation.ProviderError {
	if status == 0 {
		status = statusByCode[kind]
	}
	// An unusable key is reported as a generic bad request.
	if status == http.StatusBadRequest && strings.Contains(message, "API key not valid") {
		status = http.StatusUnauthorized
	}
	return &generation.ProviderError{
		Provider: ProviderName,
		Status:   status,
		Type:     kind,
		Message:  message,
	}
}
