package execution_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	"github.com/spounge-ai/ghost-mcp/pkg/execution"
)

// instantTimer fires immediately and records every requested delay.
type instantTimer struct {
	mu     sync.Mutex
	ch     chan time.Time
	delays []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{ch: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	t.ch <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.ch
}

func (t *instantTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.delays...)
}

func newRetrier(policy execution.RetryPolicy, timer *instantTimer) *execution.Retrier {
	classifier := apperrors.NewClassifier(nil)
	return execution.NewRetrier(policy, classifier.ShouldRetry, nil,
		execution.WithTimer(func() backoff.Timer { return timer }),
		execution.WithRandom(func() float64 { return 0.5 }),
	)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := execution.DefaultRetryPolicy()

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 10*time.Second, p.Delay(4))
	assert.Equal(t, 10*time.Second, p.Delay(10))
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := execution.DefaultRetryPolicy()

	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, 10*time.Second, p.MaxDelay)
	assert.Equal(t, 2.0, p.BackoffMultiplier)
	assert.True(t, p.Jitter)
}

// TestWithRetry_SuccessFirstAttempt verifies a successful call runs exactly once.
func TestWithRetry_SuccessFirstAttempt(t *testing.T) {
	timer := newInstantTimer()
	policy := execution.DefaultRetryPolicy()
	policy.MaxRetries = 10
	r := newRetrier(policy, timer)

	calls := 0
	got, err := execution.WithRetry(context.Background(), r, "req", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, timer.Delays())
}

// TestWithRetry_Exhaustion verifies max_retries+1 attempts and that the original error propagates.
func TestWithRetry_Exhaustion(t *testing.T) {
	timer := newInstantTimer()
	r := newRetrier(execution.DefaultRetryPolicy(), timer)

	original := apperrors.NewNetworkError("connection reset", "Request to http://ghost failed", "req")
	calls := 0
	_, err := execution.WithRetry(context.Background(), r, "req", func(ctx context.Context) (int, error) {
		calls++
		return 0, original
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Same(t, original, err)

	// Jitter factor is pinned to 0.75 by the random source returning 0.5.
	assert.Equal(t, []time.Duration{
		750 * time.Millisecond,
		1500 * time.Millisecond,
		3 * time.Second,
	}, timer.Delays())
}

// TestWithRetry_NonRetryableShortCircuits verifies a terminal error stops at the first attempt.
func TestWithRetry_NonRetryableShortCircuits(t *testing.T) {
	timer := newInstantTimer()
	r := newRetrier(execution.DefaultRetryPolicy(), timer)

	original := apperrors.NewAuthenticationError("bad key", "", "req")
	calls := 0
	_, err := execution.WithRetry(context.Background(), r, "req", func(ctx context.Context) (int, error) {
		calls++
		return 0, original
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, original, err)
	assert.Empty(t, timer.Delays())
}

func TestWithRetry_RecoversAfterTransientFailures(t *testing.T) {
	timer := newInstantTimer()
	r := newRetrier(execution.DefaultRetryPolicy(), timer)

	calls := 0
	got, err := execution.WithRetry(context.Background(), r, "req", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", apperrors.NewGhostAPIError("Internal Server Error", "", "HTTP 500", "req")
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 3, calls)
	assert.Len(t, timer.Delays(), 2)
}

func TestWithRetry_NoJitterUsesExactDelays(t *testing.T) {
	timer := newInstantTimer()
	policy := execution.RetryPolicy{
		MaxRetries:        4,
		BaseDelay:         100 * time.Millisecond,
		MaxDelay:          300 * time.Millisecond,
		BackoffMultiplier: 2,
	}
	r := newRetrier(policy, timer)

	_, err := execution.WithRetry(context.Background(), r, "", func(ctx context.Context) (int, error) {
		return 0, apperrors.NewGhostAPIError("slow down", "", "HTTP 429", "")
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		300 * time.Millisecond,
	}, timer.Delays())
}

func TestWithRetry_ZeroRetries(t *testing.T) {
	timer := newInstantTimer()
	policy := execution.DefaultRetryPolicy()
	policy.MaxRetries = 0
	r := newRetrier(policy, timer)

	calls := 0
	_, err := execution.WithRetry(context.Background(), r, "", func(ctx context.Context) (int, error) {
		calls++
		return 0, apperrors.NewNetworkError("down", "", "")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_UnknownErrorIsRetried(t *testing.T) {
	timer := newInstantTimer()
	r := newRetrier(execution.DefaultRetryPolicy(), timer)

	novel := errors.New("novel failure")
	calls := 0
	_, err := execution.WithRetry(context.Background(), r, "", func(ctx context.Context) (int, error) {
		calls++
		return 0, novel
	})

	assert.Equal(t, 4, calls)
	assert.Same(t, novel, err)
}

func TestWithRetry_CancelledContextReturnsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := execution.NewRetrier(execution.DefaultRetryPolicy(), func(error) bool { return true }, nil)

	original := apperrors.NewNetworkError("down", "", "")
	calls := 0
	_, err := execution.WithRetry(ctx, r, "", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, original
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, original, err)
}

func TestWithTimeout(t *testing.T) {
	_, err := execution.WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
