package execution

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
)

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryPolicy bounds the backoff loop. Immutable once handed to a Retrier.
type RetryPolicy struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay is the un-jittered wait after the zero-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if limit := float64(p.MaxDelay); d > limit {
		d = limit
	}
	return time.Duration(d)
}

// policyBackOff adapts RetryPolicy to backoff.BackOff.
type policyBackOff struct {
	policy  RetryPolicy
	random  func() float64
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	if b.attempt >= b.policy.MaxRetries {
		return backoff.Stop
	}
	d := b.policy.Delay(b.attempt)
	if b.policy.Jitter {
		d = time.Duration(float64(d) * (0.5 + b.random()*0.5))
	}
	b.attempt++
	return d
}

func (b *policyBackOff) Reset() {
	b.attempt = 0
}

// Retrier runs operations under a RetryPolicy, consulting shouldRetry after each failure.
type Retrier struct {
	policy      RetryPolicy
	shouldRetry func(error) bool
	logger      *slog.Logger
	newTimer    func() backoff.Timer
	random      func() float64
}

type RetrierOption func(*Retrier)

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(newTimer func() backoff.Timer) RetrierOption {
	return func(r *Retrier) {
		r.newTimer = newTimer
	}
}

// WithRandom replaces the jitter source; fn must return values in [0, 1).
func WithRandom(fn func() float64) RetrierOption {
	return func(r *Retrier) {
		r.random = fn
	}
}

func NewRetrier(policy RetryPolicy, shouldRetry func(error) bool, logger *slog.Logger, opts ...RetrierOption) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	r := &Retrier{
		policy:      policy,
		shouldRetry: shouldRetry,
		logger:      logger,
		random:      rand.Float64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) Policy() RetryPolicy {
	return r.policy
}

// WithRetry invokes fn up to MaxRetries+1 times. A non-retryable failure stops
// the loop at once. The error returned is always the one fn produced.
func WithRetry[T any](ctx context.Context, r *Retrier, requestID string, fn RetryableFunc[T]) (T, error) {
	var (
		attempts int
		lastErr  error
	)

	operation := func() (T, error) {
		attempts++
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !r.shouldRetry(err) {
			r.logger.LogAttrs(ctx, slog.LevelDebug, "error is not retryable",
				slog.Int("attempt", attempts),
				slog.String("error", err.Error()),
			)
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, delay time.Duration) {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "attempt failed, retrying",
			slog.Int("attempt", attempts),
			slog.Int("max_retries", r.policy.MaxRetries),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
	}

	var timer backoff.Timer
	if r.newTimer != nil {
		timer = r.newTimer()
	}
	b := backoff.WithContext(&policyBackOff{policy: r.policy, random: r.random}, ctx)

	result, err := backoff.RetryNotifyWithTimerAndData(operation, b, notify, timer)
	if err == nil {
		return result, nil
	}

	if lastErr == nil {
		var zero T
		return zero, apperrors.NewNetworkError("Retry logic failed unexpectedly", "", requestID).WithCause(err)
	}

	if attempts > r.policy.MaxRetries && !errors.Is(err, context.Canceled) {
		r.logger.LogAttrs(ctx, slog.LevelError, "all retry attempts failed",
			slog.Int("attempts", attempts),
			slog.String("error", lastErr.Error()),
		)
	}
	return result, lastErr
}
