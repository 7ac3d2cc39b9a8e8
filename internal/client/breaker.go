package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	"github.com/spounge-ai/ghost-mcp/pkg/cache"
	"github.com/spounge-ai/ghost-mcp/pkg/patterns/circuitbreaker"
)

type breaker = circuitbreaker.Breaker[Result]

// newBreakers returns one breaker per surface, or nil when failures is zero.
// Only transient failures (those the retry policy would retry) count against a breaker.
func newBreakers(failures int, reset time.Duration, classifier *apperrors.Classifier, logger *slog.Logger) map[domain.Surface]*breaker {
	if failures <= 0 {
		return nil
	}
	if reset <= 0 {
		reset = 30 * time.Second
	}

	isFailure := func(err error) bool {
		return !errors.Is(err, context.Canceled) && classifier.ShouldRetry(err)
	}

	breakers := make(map[domain.Surface]*breaker, 2)
	for _, surface := range []domain.Surface{domain.SurfaceContent, domain.SurfaceAdmin} {
		breakers[surface] = circuitbreaker.New(failures, reset,
			circuitbreaker.WithFailurePredicate[Result](isFailure),
			circuitbreaker.WithStateChange[Result](func(from, to circuitbreaker.State) {
				logger.Warn("circuit breaker state changed",
					"surface", surface,
					"from", from.String(),
					"to", to.String(),
				)
			}),
		)
	}
	return breakers
}

// guarded runs fn through the surface's breaker when one is configured.
func (c *Client) guarded(ctx context.Context, surface domain.Surface, requestID string, fn func(context.Context) (Result, error)) (Result, error) {
	b, ok := c.breakers[surface]
	if !ok {
		return fn(ctx)
	}

	result, err := b.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("Circuit breaker open for %s API", surface),
			"Too many consecutive failures; requests are paused until the breaker resets",
			requestID,
		).WithCause(err)
	}
	return result, err
}

func newResponseCache(ttl time.Duration) *cache.Cache[string, Result] {
	if ttl <= 0 {
		return nil
	}
	return cache.New(cache.WithDefaultTTL[string, Result](ttl))
}

// cacheKey identifies a cacheable Content API read. Auth material is not part of the key.
func cacheKey(target string, params url.Values) string {
	if len(params) == 0 {
		return target
	}
	return target + "?" + params.Encode()
}
