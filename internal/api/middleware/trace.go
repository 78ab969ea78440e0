package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/caption-api/internal/api/shared"
)

// TraceHeader carries the trace ID back to the caller so that a client can
// quote it when reporting a failed request.
const TraceHeader = "X-Trace-ID"

// TraceMiddleware assigns every request a trace ID, stores it in the request
// context and echoes it in the TraceHeader response header. It must run
// before any handler that logs.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		w.Header().Set(TraceHeader, shared.GetTraceID(ctx))

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		}
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			attrs = append(attrs, slog.String("request_id", reqID))
		}
		slog.DebugContext(ctx, "request started", attrs...)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
