package middleware

import (
	"fmt"
	"math"
	"net/http"

	"github.com/phrazzld/caption-api/internal/api/shared"
	"github.com/phrazzld/caption-api/internal/classify"
	"golang.org/x/time/rate"
)

// RateLimiter rejects requests beyond a token bucket shared by all clients.
type RateLimiter struct {
	limiter    *rate.Limiter
	retryAfter int
}

// NewRateLimiter creates a RateLimiter refilling requestsPerSecond tokens per
// second up to burst. A non-positive rate disables limiting.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		return &RateLimiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		retryAfter: int(math.Max(1, math.Ceil(1/requestsPerSecond))),
	}
}

// Limit answers requests over the limit with the RATE_LIMIT envelope.
func (m *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow() {
			err := classify.New(classify.KindRateLimit, fmt.Errorf("inbound rate limit exceeded for %s", r.URL.Path))
			shared.RespondWithErrorAndLog(w, r, err.HTTPStatus, err.UserMessage, err,
				shared.WithRetryAfter(m.retryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}
