// Package redact provides utilities for redacting sensitive information from strings
// before they are logged. Provider error bodies and transport errors can echo
// credentials, authorization headers or uploaded image data; everything that
// reaches a log line from an upstream failure passes through String or Error.
package redact

import "regexp"

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedImagePlaceholder      = "[REDACTED_IMAGE]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules are applied in order; more specific patterns come first.
var rules = []rule{
	// Inline image payloads are large and may contain personal data.
	{regexp.MustCompile(`data:image/[A-Za-z0-9.+-]+;base64,[A-Za-z0-9+/=]+`), RedactedImagePlaceholder},
	// Authorization headers.
	{regexp.MustCompile(`(?i)(bearer)\s+[A-Za-z0-9._~+/=-]{8,}`), "$1 " + RedactedCredentialPlaceholder},
	// OpenAI style keys, including the fragment echoed in "Incorrect API key provided" errors.
	{regexp.MustCompile(`\bsk-(?:proj-|pro-)?[A-Za-z0-9_*-]{4,}`), RedactedKeyPlaceholder},
	// Google API keys.
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`), RedactedKeyPlaceholder},
	// Generic key=value credentials.
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), "$1$2" + RedactedKeyPlaceholder},
	// JWT tokens.
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED_JWT]"},
	// Email addresses.
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), RedactedEmailPlaceholder},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
