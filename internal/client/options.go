package client

import (
	"net/http"
	"time"

	"github.com/spounge-ai/ghost-mcp/internal/infra/auth"
	"github.com/spounge-ai/ghost-mcp/internal/infra/ratelimit"
	"github.com/spounge-ai/ghost-mcp/pkg/execution"
)

type settings struct {
	baseURL      string
	contentKey   string
	adminKey     string
	timeout      time.Duration
	policy       execution.RetryPolicy
	httpClient   *http.Client
	limiter      ratelimit.Limiter
	adminOpts    []auth.AdminOption
	retrierOpts  []execution.RetrierOption
	unclassified *bool
	breakerMax   int
	breakerTTL   time.Duration
	cacheTTL     time.Duration
}

// Option overrides a value that otherwise comes from configuration.
type Option func(*settings)

func WithBaseURL(baseURL string) Option {
	return func(s *settings) { s.baseURL = baseURL }
}

func WithContentAPIKey(key string) Option {
	return func(s *settings) { s.contentKey = key }
}

func WithAdminAPIKey(key string) Option {
	return func(s *settings) { s.adminKey = key }
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) { s.timeout = timeout }
}

func WithRetryPolicy(policy execution.RetryPolicy) Option {
	return func(s *settings) { s.policy = policy }
}

// WithHTTPClient replaces the pooled client; its Timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(s *settings) { s.limiter = l }
}

// WithAdminTokenOptions forwards options to the admin token provider.
func WithAdminTokenOptions(opts ...auth.AdminOption) Option {
	return func(s *settings) { s.adminOpts = append(s.adminOpts, opts...) }
}

// WithRetrierOptions forwards options to the retry loop, e.g. a test timer.
func WithRetrierOptions(opts ...execution.RetrierOption) Option {
	return func(s *settings) { s.retrierOpts = append(s.retrierOpts, opts...) }
}

// WithRetryUnclassified sets whether errors outside the taxonomy are retried.
func WithRetryUnclassified(retry bool) Option {
	return func(s *settings) { s.unclassified = &retry }
}

// WithCircuitBreaker trips a per-surface breaker after failures consecutive transient failures.
// Zero disables it.
func WithCircuitBreaker(failures int, reset time.Duration) Option {
	return func(s *settings) {
		s.breakerMax = failures
		s.breakerTTL = reset
	}
}

// WithResponseCache caches successful Content API reads for ttl. Zero disables it.
func WithResponseCache(ttl time.Duration) Option {
	return func(s *settings) { s.cacheTTL = ttl }
}
