package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces outbound calls per identifier (an API surface).
type Limiter interface {
	// Wait blocks until a call for identifier may proceed or ctx ends.
	Wait(ctx context.Context, identifier string) error
}

// NewInMemoryRateLimiter creates one token bucket per identifier on first use.
func NewInMemoryRateLimiter(r rate.Limit, b int) Limiter {
	return &inMemoryRateLimiter{
		rate:     r,
		burst:    b,
		surfaces: make(map[string]*rate.Limiter),
	}
}

type inMemoryRateLimiter struct {
	rate     rate.Limit
	burst    int
	surfaces map[string]*rate.Limiter
	mu       sync.Mutex
}

func (l *inMemoryRateLimiter) bucket(identifier string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.surfaces[identifier]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.surfaces[identifier] = limiter
	}
	return limiter
}

func (l *inMemoryRateLimiter) Wait(ctx context.Context, identifier string) error {
	return l.bucket(identifier).Wait(ctx)
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context, _ string) error { return ctx.Err() }
