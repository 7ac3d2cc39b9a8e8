package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func fail(context.Context) (int, error)    { return 0, errBoom }
func succeed(context.Context) (int, error) { return 1, nil }

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := New[int](2, time.Minute, WithClock[int](clock.Now))
	ctx := context.Background()

	_, err := cb.Execute(ctx, fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateClosed, cb.State())

	_, err = cb.Execute(ctx, fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())

	calls := 0
	_, err = cb.Execute(ctx, func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Zero(t, calls)
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	cb := New[int](2, time.Minute)
	ctx := context.Background()

	_, _ = cb.Execute(ctx, fail)
	_, err := cb.Execute(ctx, succeed)
	require.NoError(t, err)
	_, _ = cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var transitions []string
	cb := New[int](1, 30*time.Second,
		WithClock[int](clock.Now),
		WithStateChange[int](func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)
	ctx := context.Background()

	_, _ = cb.Execute(ctx, fail)
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(31 * time.Second)
	_, err := cb.Execute(ctx, fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())

	_, err = cb.Execute(ctx, succeed)
	assert.ErrorIs(t, err, ErrOpen)

	clock.Advance(31 * time.Second)
	v, err := cb.Execute(ctx, succeed)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{
		"closed->open",
		"open->half-open",
		"half-open->open",
		"open->half-open",
		"half-open->closed",
	}, transitions)
}

func TestBreaker_FailurePredicate(t *testing.T) {
	errIgnored := errors.New("client error")
	cb := New[int](1, time.Minute, WithFailurePredicate[int](func(err error) bool {
		return !errors.Is(err, errIgnored)
	}))

	_, err := cb.Execute(context.Background(), func(context.Context) (int, error) { return 0, errIgnored })
	assert.ErrorIs(t, err, errIgnored)
	assert.Equal(t, StateClosed, cb.State())
}
