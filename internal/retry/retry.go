// Package retry provides a bounded retry executor with exponential backoff
// and optional jitter for calls to unreliable upstream services.
//
// Failures are classified with the classify package after every attempt.
// Kinds in the non-retryable set fail fast, since waiting cannot fix them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/phrazzld/caption-api/internal/classify"
)

// Default settings used when a Config field is left unset or invalid.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialDelay    = time.Second
	DefaultMaxParseRetries = 1
)

// DefaultNonRetryable lists the kinds that are surfaced immediately.
var DefaultNonRetryable = []classify.Kind{
	classify.KindAuth,
	classify.KindValidation,
	classify.KindPayloadTooLarge,
}

// Config controls a single Do invocation.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the wait after the first failed attempt. It doubles
	// after every further failure.
	InitialDelay time.Duration
	// Jitter scales each delay by a uniform random factor in [0.5, 1.0].
	Jitter bool
	// NonRetryable overrides DefaultNonRetryable when non-nil.
	NonRetryable []classify.Kind
	// MaxParseRetries bounds how often a PARSE_FAILURE is retried.
	MaxParseRetries int
}

// DefaultConfig returns the configuration used by most call sites.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     DefaultMaxAttempts,
		InitialDelay:    DefaultInitialDelay,
		Jitter:          true,
		MaxParseRetries: DefaultMaxParseRetries,
	}
}

func (c Config) normalized() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.NonRetryable == nil {
		c.NonRetryable = DefaultNonRetryable
	}
	if c.MaxParseRetries < 0 {
		c.MaxParseRetries = 0
	}
	return c
}

// Attempt records the outcome of one attempt. It only lives for the
// duration of a Do call.
type Attempt struct {
	Number int
	// DelayBeforeNext is zero for the final attempt.
	DelayBeforeNext time.Duration
	// TerminalKind is set when this attempt ended the retry loop with an error.
	TerminalKind classify.Kind
	Err          error
}

// Observer receives every attempt of a Do call, in order.
type Observer func(ctx context.Context, operation string, a Attempt)

// Executor runs operations under a retry policy. It holds no per-call state
// and is safe for concurrent use.
type Executor struct {
	logger   *slog.Logger
	observer Observer
	random   func() float64
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver registers a callback invoked after every attempt.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithRandom replaces the jitter source. fn must return values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(e *Executor) { e.random = fn }
}

// NewExecutor creates an Executor logging to logger.
func NewExecutor(logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		logger: logger,
		random: rand.Float64,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Delay returns the wait after failed attempt number attempt (1-based):
// initial × 2^(attempt-1), scaled by a factor in [0.5, 1.0] when jitter is on.
func Delay(initial time.Duration, attempt int, jitter bool, random func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(initial) * math.Pow(2, float64(attempt-1))
	if jitter && random != nil {
		d *= 0.5 + random()*0.5
	}
	return time.Duration(d)
}

// Do runs op until it succeeds, fails with a non-retryable kind, or the
// attempt budget is spent. The last observed error is returned unchanged.
// Only the calling goroutine waits between attempts; the wait ends early
// when ctx is done.
func Do[T any](
	ctx context.Context,
	e *Executor,
	operation string,
	cfg Config,
	op func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	cfg = cfg.normalized()

	parseRetries := 0
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		e.logger.DebugContext(ctx, "Starting attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts)

		result, err := op(ctx)
		if err == nil {
			e.observe(ctx, operation, Attempt{Number: attempt})
			return result, nil
		}
		lastErr = err

		kind := classify.FromError(err).Kind
		terminal := attempt == cfg.MaxAttempts || slices.Contains(cfg.NonRetryable, kind)
		if kind == classify.KindParseFailure {
			if parseRetries >= cfg.MaxParseRetries {
				terminal = true
			}
			parseRetries++
		}

		if terminal {
			e.logger.WarnContext(ctx, "Giving up",
				"operation", operation,
				"attempt", attempt,
				"kind", kind)
			e.observe(ctx, operation, Attempt{Number: attempt, TerminalKind: kind, Err: err})
			return zero, err
		}

		delay := Delay(cfg.InitialDelay, attempt, cfg.Jitter, e.random)
		e.logger.InfoContext(ctx, "Attempt failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"kind", kind,
			"delay", delay)
		e.observe(ctx, operation, Attempt{Number: attempt, DelayBeforeNext: delay, Err: err})

		if err := e.sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("retry aborted after attempt %d: %w", attempt, errors.Join(lastErr, err))
		}
	}

	return zero, lastErr
}

func (e *Executor) observe(ctx context.Context, operation string, a Attempt) {
	if e.observer != nil {
		e.observer(ctx, operation, a)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
