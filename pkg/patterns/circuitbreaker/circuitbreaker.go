package circuitbreaker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open")

// Breaker is a generic, thread-safe circuit breaker. It opens after maxFailures
// consecutive failures and lets a single probe through once resetTimeout has passed.
type Breaker[T any] struct {
	maxFailures  int64
	resetTimeout time.Duration
	isFailure    func(error) bool
	onChange     func(from, to State)
	now          func() time.Time

	state           atomic.Int32
	failures        atomic.Int64
	lastFailureTime atomic.Int64 // Unix nano
	probing         atomic.Bool
}

type Option[T any] func(*Breaker[T])

// WithFailurePredicate limits which errors count as failures. Other errors pass through untouched.
func WithFailurePredicate[T any](fn func(error) bool) Option[T] {
	return func(cb *Breaker[T]) { cb.isFailure = fn }
}

// WithStateChange registers a callback invoked after every transition.
func WithStateChange[T any](fn func(from, to State)) Option[T] {
	return func(cb *Breaker[T]) { cb.onChange = fn }
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(cb *Breaker[T]) { cb.now = now }
}

func New[T any](maxFailures int, resetTimeout time.Duration, opts ...Option[T]) *Breaker[T] {
	cb := &Breaker[T]{
		maxFailures:  int64(maxFailures),
		resetTimeout: resetTimeout,
		isFailure:    func(err error) bool { return err != nil },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	cb.state.Store(int32(StateClosed))
	return cb
}

func (cb *Breaker[T]) State() State {
	return State(cb.state.Load())
}

// Execute runs fn unless the breaker is open.
func (cb *Breaker[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	probe, ok := cb.acquire()
	if !ok {
		var zero T
		return zero, ErrOpen
	}

	result, err := fn(ctx)
	cb.record(err, probe)

	return result, err
}

func (cb *Breaker[T]) acquire() (probe bool, ok bool) {
	switch cb.State() {
	case StateClosed:
		return false, true
	case StateOpen:
		if cb.now().UnixNano() < cb.lastFailureTime.Load()+cb.resetTimeout.Nanoseconds() {
			return false, false
		}
		if !cb.probing.CompareAndSwap(false, true) {
			return false, false
		}
		cb.transition(StateOpen, StateHalfOpen)
		return true, true
	default:
		return false, false
	}
}

func (cb *Breaker[T]) record(err error, probe bool) {
	if probe {
		defer cb.probing.Store(false)
	}

	if err != nil && cb.isFailure(err) {
		failures := cb.failures.Add(1)
		cb.lastFailureTime.Store(cb.now().UnixNano())

		switch {
		case probe:
			cb.transition(StateHalfOpen, StateOpen)
		case failures >= cb.maxFailures:
			cb.transition(StateClosed, StateOpen)
		}
		return
	}

	cb.failures.Store(0)
	if probe {
		cb.transition(StateHalfOpen, StateClosed)
	}
}

func (cb *Breaker[T]) transition(from, to State) {
	if cb.state.CompareAndSwap(int32(from), int32(to)) && cb.onChange != nil {
		cb.onChange(from, to)
	}
}
