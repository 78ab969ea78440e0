package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/caption-api/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects observed attempts.
type recorder struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (r *recorder) observe(_ context.Context, _ string, a Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	e := NewExecutor(testLogger())
	calls := 0

	got, err := Do(context.Background(), e, "test", DefaultConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDo_AuthFailsFast(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(testLogger(), WithObserver(rec.observe))
	calls := 0
	authErr := classify.Classify(401, "invalid_api_key")

	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond}
	_, err := Do(context.Background(), e, "test", cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, authErr
	})

	require.Error(t, err)
	assert.Same(t, authErr, err)
	assert.Equal(t, 1, calls)
	require.Len(t, rec.attempts, 1)
	assert.Equal(t, classify.KindAuth, rec.attempts[0].TerminalKind)
}

func TestDo_NonRetryableKinds(t *testing.T) {
	for _, kind := range []classify.Kind{classify.KindValidation, classify.KindPayloadTooLarge} {
		t.Run(string(kind), func(t *testing.T) {
			e := NewExecutor(testLogger())
			calls := 0
			_, err := Do(context.Background(), e, "test", Config{MaxAttempts: 4}, func(ctx context.Context) (int, error) {
				calls++
				return 0, classify.New(kind, nil)
			})
			require.Error(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestDo_RecoversAfterTransientFailures(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(testLogger(), WithObserver(rec.observe))
	calls := 0
	initial := 20 * time.Millisecond

	cfg := Config{MaxAttempts: 5, InitialDelay: initial, Jitter: false}
	start := time.Now()
	got, err := Do(context.Background(), e, "test", cfg, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", classify.Classify(503, "service unavailable")
		}
		return "done", nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, elapsed, initial+2*initial)

	require.Len(t, rec.attempts, 3)
	assert.Equal(t, initial, rec.attempts[0].DelayBeforeNext)
	assert.Equal(t, 2*initial, rec.attempts[1].DelayBeforeNext)
	assert.Zero(t, rec.attempts[2].DelayBeforeNext)
	assert.Empty(t, rec.attempts[2].TerminalKind)
}

func TestDo_ExhaustsAndReturnsLastError(t *testing.T) {
	e := NewExecutor(testLogger())
	calls := 0
	var last error

	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond}
	_, err := Do(context.Background(), e, "test", cfg, func(ctx context.Context) (int, error) {
		calls++
		last = fmt.Errorf("rate limit hit on call %d", calls)
		return 0, last
	})

	assert.Equal(t, 3, calls)
	assert.Same(t, last, err)
}

func TestDo_ParseFailureRetriedOnce(t *testing.T) {
	e := NewExecutor(testLogger())
	calls := 0

	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxParseRetries: 1}
	_, err := Do(context.Background(), e, "test", cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("failed to parse provider output")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	e := NewExecutor(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	upstream := classify.Classify(503, "")

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	cfg := Config{MaxAttempts: 3, InitialDelay: time.Minute}
	_, err := Do(ctx, e, "test", cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, upstream
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, upstream)
}

func TestDo_ConcurrentCallersDoNotSerialize(t *testing.T) {
	e := NewExecutor(testLogger())
	cfg := Config{MaxAttempts: 2, InitialDelay: 50 * time.Millisecond}

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			calls := 0
			_, _ = Do(context.Background(), e, "test", cfg, func(ctx context.Context) (int, error) {
				calls++
				if calls == 1 {
					return 0, classify.Classify(429, "")
				}
				return 1, nil
			})
		}()
	}
	wg.Wait()

	// Ten sequential waits would take at least 500ms.
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name     string
		attempt  int
		jitter   bool
		random   float64
		expected time.Duration
	}{
		{"first retry", 1, false, 0, 100 * time.Millisecond},
		{"second retry", 2, false, 0, 200 * time.Millisecond},
		{"fourth retry", 4, false, 0, 800 * time.Millisecond},
		{"jitter lower bound", 2, true, 0, 100 * time.Millisecond},
		{"jitter midpoint", 2, true, 0.5, 150 * time.Millisecond},
		{"attempt below one", 0, false, 0, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delay(100*time.Millisecond, tt.attempt, tt.jitter, func() float64 { return tt.random })
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDelay_JitterWithinBounds(t *testing.T) {
	e := NewExecutor(testLogger())
	base := time.Second
	for i := 0; i < 1000; i++ {
		d := Delay(base, 3, true, e.random)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}

func TestConfigNormalized(t *testing.T) {
	c := Config{MaxAttempts: -1, InitialDelay: -time.Second, MaxParseRetries: -2}.normalized()
	assert.Equal(t, DefaultMaxAttempts, c.MaxAttempts)
	assert.Equal(t, DefaultInitialDelay, c.InitialDelay)
	assert.Equal(t, DefaultNonRetryable, c.NonRetryable)
	assert.Zero(t, c.MaxParseRetries)
}
