package redact

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	key := "sk-proj-" + strings.Repeat("A1b2", 12)

	tests := []struct {
		name        string
		input       string
		mustContain string
		mustNotHave string
	}{
		{
			name:        "empty",
			input:       "",
			mustContain: "",
		},
		{
			name:        "provider key",
			input:       "request failed with key " + key,
			mustContain: RedactedKeyPlaceholder,
			mustNotHave: key,
		},
		{
			name:        "masked key echoed by provider",
			input:       "Incorrect API key provided: sk-abc1********************wxyz.",
			mustContain: RedactedKeyPlaceholder,
			mustNotHave: "wxyz",
		},
		{
			name:        "google key",
			input:       "key=AIzaSyA1234567890abcdefghijklmnop",
			mustContain: RedactedKeyPlaceholder,
			mustNotHave: "AIzaSyA1234567890",
		},
		{
			name:        "bearer header",
			input:       "Authorization: Bearer abcdefghijklmnop",
			mustContain: "Bearer " + RedactedCredentialPlaceholder,
			mustNotHave: "abcdefghijklmnop",
		},
		{
			name:        "image data url",
			input:       `{"url":"data:image/png;base64,iVBORw0KGgoAAAANSUhEUg=="}`,
			mustContain: RedactedImagePlaceholder,
			mustNotHave: "iVBORw0KGgo",
		},
		{
			name:        "generic secret",
			input:       "api_key=supersecretvalue123",
			mustContain: "api_key=" + RedactedKeyPlaceholder,
			mustNotHave: "supersecretvalue123",
		},
		{
			name:        "email",
			input:       "account owner someone@example.com",
			mustContain: RedactedEmailPlaceholder,
			mustNotHave: "someone@example.com",
		},
		{
			name:        "plain text untouched",
			input:       "service unavailable, retry later",
			mustContain: "service unavailable, retry later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := String(tt.input)
			assert.Contains(t, got, tt.mustContain)
			if tt.mustNotHave != "" {
				assert.NotContains(t, got, tt.mustNotHave)
			}
		})
	}
}

func TestError(t *testing.T) {
	assert.Equal(t, "", Error(nil))

	err := fmt.Errorf("calling provider: %w", errors.New("401 for key sk-1234567890abcdef"))
	got := Error(err)
	assert.Contains(t, got, "calling provider")
	assert.NotContains(t, got, "1234567890abcdef")
}
