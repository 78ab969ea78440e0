// Package metrics defines the Prometheus collectors of the service and the
// HTTP middleware that feeds them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "caption_api"

// Outcome labels for provider calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder owns every collector. It is built once at startup and passed to
// the components that record into it; a nil *Recorder records nothing.
type Recorder struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	providerRequestsTotal   *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec

	retriesTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		providerRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Total number of calls to the AI provider",
			},
			[]string{"provider", "op", "outcome"},
		),
		providerRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "request_duration_seconds",
				Help:      "AI provider call duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider", "op"},
		),
		retriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "retry",
				Name:      "retries_total",
				Help:      "Total number of retried attempts by error kind",
			},
			[]string{"op", "kind"},
		),
		failuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "retry",
				Name:      "failures_total",
				Help:      "Total number of operations that failed after retrying",
			},
			[]string{"op", "kind"},
		),
		fallbackTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "fallback_total",
				Help:      "Total number of provider answers replaced by a default result",
			},
			[]string{"parser"},
		),
	}
}

// ObserveProviderCall records one outbound provider call.
func (r *Recorder) ObserveProviderCall(provider, op string, err error, d time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.providerRequestsTotal.WithLabelValues(provider, op, outcome).Inc()
	r.providerRequestDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

// IncRetry records a failed attempt that will be retried.
func (r *Recorder) IncRetry(op, kind string) {
	if r == nil {
		return
	}
	r.retriesTotal.WithLabelValues(op, kind).Inc()
}

// IncFailure records an operation that gave up.
func (r *Recorder) IncFailure(op, kind string) {
	if r == nil {
		return
	}
	r.failuresTotal.WithLabelValues(op, kind).Inc()
}

// IncFallback records a default result substituted for malformed output.
func (r *Recorder) IncFallback(parser string) {
	if r == nil {
		return
	}
	r.fallbackTotal.WithLabelValues(parser).Inc()
}

// Middleware records request counts and latencies labelled by chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r == nil {
			next.ServeHTTP(w, req)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		r.httpRequestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.httpRequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
