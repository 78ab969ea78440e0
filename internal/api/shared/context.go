package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/caption-api/internal/platform/logger"
)

// SetTraceID adds a fresh trace ID to the context.
// The same ID is attached to every log record written with the context and
// returned to clients in error envelopes, so the two can be correlated.
func SetTraceID(ctx context.Context) context.Context {
	return logger.WithTraceID(ctx, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	return logger.TraceIDFrom(ctx)
}

// generateTraceID returns a random 32 character hex string.
func generateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
