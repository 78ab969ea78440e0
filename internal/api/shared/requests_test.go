package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Text string `json:"text" validate:"required"`
	Lang string `json:"lang" validate:"omitempty,min=2"`
}

type selfValidating struct {
	Value string `json:"value"`
}

func (s selfValidating) Validate() error {
	if s.Value != "ok" {
		return errors.New("value must be ok")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     bool
		wantEmpty   bool
		wantPayload testRequest
	}{
		{
			name:        "valid body",
			body:        `{"text":"hello","lang":"en"}`,
			wantPayload: testRequest{Text: "hello", Lang: "en"},
		},
		{
			name:      "empty body",
			body:      "",
			wantErr:   true,
			wantEmpty: true,
		},
		{
			name:    "malformed body",
			body:    `{"text":`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			body:    `{"text":42}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			var got testRequest
			err := DecodeJSON(w, req, &got)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, tc.wantEmpty, errors.Is(err, ErrEmptyBody))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantPayload, got)
		})
	}
}

func TestDecodeJSONTooLarge(t *testing.T) {
	body := `{"text":"` + strings.Repeat("a", MaxJSONBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	w := httptest.NewRecorder()

	var got testRequest
	err := DecodeJSON(w, req, &got)
	require.Error(t, err)

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, err, &maxErr)
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&testRequest{Text: "hi"}))
	assert.Error(t, ValidateRequest(&testRequest{}))
	assert.Error(t, ValidateRequest(&testRequest{Text: "hi", Lang: "e"}))

	assert.NoError(t, ValidateRequest(selfValidating{Value: "ok"}))
	assert.EqualError(t, ValidateRequest(selfValidating{Value: "no"}), "value must be ok")
}
