package classify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the category of a classified failure.
type Kind string

const (
	KindAuth               Kind = "AUTH"
	KindRateLimit          Kind = "RATE_LIMIT"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindParseFailure       Kind = "PARSE_FAILURE"
	KindPayloadTooLarge    Kind = "PAYLOAD_TOO_LARGE"
	KindValidation         Kind = "VALIDATION"
	KindUnknown            Kind = "UNKNOWN"
)

// DefaultRetryAfterSeconds is the retry hint attached to RATE_LIMIT errors
// when the provider did not supply one.
const DefaultRetryAfterSeconds = 60

// User-safe messages per kind. Raw provider text never reaches these.
const (
	MsgAuth               = "Authentication failed. Please check your API key configuration."
	MsgRateLimit          = "Rate limit exceeded. Please try again in a few minutes."
	MsgServiceUnavailable = "The AI service is temporarily unavailable. Please try again later."
	MsgParseFailure       = "Failed to parse the API response. Please try again."
	MsgPayloadTooLarge    = "The image file is too large. Please use a smaller image."
	MsgValidation         = "The request is invalid."
	MsgUnknown            = "An unexpected error occurred. Please try again."
)

// ClassifiedError is the normalized, user-safe record of a failure.
type ClassifiedError struct {
	Kind Kind
	// HTTPStatus is the status reported at the inbound boundary for this kind.
	HTTPStatus  int
	UserMessage string
	// RetryAfterSeconds is zero when no retry hint applies.
	RetryAfterSeconds int
	// UpstreamStatus is the provider status the classification was derived from, zero if none.
	UpstreamStatus int
	// Cause is the raw failure. It is for logs only.
	Cause error
}

// Error implements the error interface. It never includes the cause text so
// that a ClassifiedError can be rendered to callers directly.
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
}

// Unwrap returns the underlying cause.
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// statusCoder is implemented by errors carrying an upstream HTTP status.
type statusCoder interface {
	StatusCode() int
}

// retryAfterer is implemented by errors carrying a provider supplied retry hint.
type retryAfterer interface {
	RetryAfterSeconds() int
}

// kinded is implemented by errors that already know their kind, such as
// request validation failures.
type kinded interface {
	ErrorKind() Kind
}

// Classify maps an HTTP status and a raw message to a ClassifiedError.
// A status of 0 means no status was available. An explicit status takes
// priority over message matching.
func Classify(status int, message string) *ClassifiedError {
	kind := kindForStatus(status)
	if kind == "" {
		kind = kindForMessage(message)
	}
	return newClassified(kind, status)
}

// FromError classifies an arbitrary error. Errors that are already classified
// are returned as is; typed errors contribute their status, retry hint, or
// kind; everything else falls back to message matching.
func FromError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	var k kinded
	if errors.As(err, &k) {
		out := newClassified(k.ErrorKind(), 0)
		if out.Kind == KindValidation {
			// Validation messages are authored by us, not the provider.
			if e, ok := k.(error); ok {
				out.UserMessage = e.Error()
			}
		}
		out.Cause = err
		return out
	}

	status := 0
	var sc statusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	out := Classify(status, err.Error())
	out.Cause = err

	var ra retryAfterer
	if out.Kind == KindRateLimit && errors.As(err, &ra) && ra.RetryAfterSeconds() > 0 {
		out.RetryAfterSeconds = ra.RetryAfterSeconds()
	}
	return out
}

// New builds a ClassifiedError of the given kind with its fixed user message.
func New(kind Kind, cause error) *ClassifiedError {
	out := newClassified(kind, 0)
	out.Cause = cause
	return out
}

func newClassified(kind Kind, upstream int) *ClassifiedError {
	out := &ClassifiedError{
		Kind:           kind,
		HTTPStatus:     StatusFor(kind),
		UserMessage:    MessageFor(kind),
		UpstreamStatus: upstream,
	}
	if kind == KindRateLimit {
		out.RetryAfterSeconds = DefaultRetryAfterSeconds
	}
	return out
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	default:
		return ""
	}
}

func kindForMessage(message string) Kind {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "invalid_api_key"), strings.Contains(msg, "auth"):
		return KindAuth
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"):
		return KindRateLimit
	case strings.Contains(msg, "unavailable"), strings.Contains(msg, "model"):
		return KindServiceUnavailable
	case strings.Contains(msg, "parse"):
		return KindParseFailure
	default:
		return KindUnknown
	}
}

// StatusFor returns the inbound boundary HTTP status for a kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindParseFailure:
		return http.StatusUnprocessableEntity
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the fixed user-safe message for a kind.
func MessageFor(kind Kind) string {
	switch kind {
	case KindAuth:
		return MsgAuth
	case KindRateLimit:
		return MsgRateLimit
	case KindServiceUnavailable:
		return MsgServiceUnavailable
	case KindParseFailure:
		return MsgParseFailure
	case KindPayloadTooLarge:
		return MsgPayloadTooLarge
	case KindValidation:
		return MsgValidation
	default:
		return MsgUnknown
	}
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	ce := FromError(err)
	return ce != nil && ce.Kind == kind
}
