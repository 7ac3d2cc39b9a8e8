package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/spounge-ai/ghost-mcp/internal/constants"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	"github.com/spounge-ai/ghost-mcp/internal/infra/auth"
	"github.com/spounge-ai/ghost-mcp/internal/infra/config"
	"github.com/spounge-ai/ghost-mcp/internal/infra/ratelimit"
	"github.com/spounge-ai/ghost-mcp/pkg/cache"
	"github.com/spounge-ai/ghost-mcp/pkg/execution"
)

const (
	apiPrefix = "ghost/api/"

	maxIdleConnsPerHost = 10
	maxConns            = 100
)

// Result is a decoded JSON object returned by Ghost.
type Result map[string]any

// Request describes one call. It is assembled per call and not retained.
type Request struct {
	Method    string
	Endpoint  string
	Surface   domain.Surface
	Params    url.Values
	Body      any
	RequestID string
}

// Client talks to both Ghost REST surfaces over one shared connection pool.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	timeout   time.Duration
	content   *auth.ContentKeyProvider
	admin     *auth.AdminTokenProvider
	providers auth.Providers
	retrier   *execution.Retrier
	classify  *apperrors.Classifier
	http      *http.Client
	limiter   ratelimit.Limiter
	breakers  map[domain.Surface]*breaker
	cache     *cache.Cache[string, Result]
	logger    *slog.Logger
}

// New builds a client from cfg; opts override individual values.
func New(cfg config.GhostConfig, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := settings{
		baseURL:    cfg.URL,
		contentKey: cfg.ContentAPIKey,
		adminKey:   cfg.AdminAPIKey,
		timeout:    cfg.Timeout(),
		policy:     cfg.RetryPolicy(),
		breakerMax: cfg.BreakerFailures,
		breakerTTL: cfg.BreakerResetTimeout(),
		cacheTTL:   cfg.CacheTTLDuration(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = ratelimit.NewInMemoryRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	for _, opt := range opts {
		opt(&s)
	}

	base, err := normalizeBaseURL(s.baseURL)
	if err != nil {
		return nil, err
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.limiter == nil {
		s.limiter = ratelimit.Unlimited{}
	}
	if s.httpClient == nil {
		s.httpClient = newHTTPClient(s.timeout)
	}

	classifier := apperrors.NewClassifier(logger)
	if s.unclassified != nil {
		classifier.RetryUnclassified = *s.unclassified
	}

	content := auth.NewContentKeyProvider(s.contentKey, logger)
	admin := auth.NewAdminTokenProvider(s.adminKey, logger, s.adminOpts...)
	logger = logger.With("component", "ghost_client")

	return &Client{
		baseURL:   base,
		timeout:   s.timeout,
		content:   content,
		admin:     admin,
		providers: auth.NewProviders(content, admin),
		classify:  classifier,
		retrier:   execution.NewRetrier(s.policy, classifier.ShouldRetry, logger, s.retrierOpts...),
		http:      s.httpClient,
		limiter:   s.limiter,
		breakers:  newBreakers(s.breakerMax, s.breakerTTL, classifier, logger),
		cache:     newResponseCache(s.cacheTTL),
		logger:    logger,
	}, nil
}

// Use runs fn with a fresh client and releases its connections on every exit path.
func Use(ctx context.Context, cfg config.GhostConfig, logger *slog.Logger, fn func(context.Context, *Client) error, opts ...Option) error {
	c, err := New(cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = maxConns
	transport.MaxIdleConnsPerHost = maxIdleConnsPerHost
	transport.MaxConnsPerHost = maxConns
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{Timeout: timeout, Transport: transport}
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid Ghost base URL %q", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/") + "/", nil
}

// Close releases idle pooled connections and stops the response cache sweep.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	if c.cache != nil {
		c.cache.Stop()
	}
	return nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ContentConfigured() bool {
	return c.content.IsConfigured()
}

func (c *Client) AdminConfigured() bool {
	return c.admin.IsConfigured()
}

// Classifier returns the retry classifier the client's retry loop uses.
func (c *Client) Classifier() *apperrors.Classifier {
	return c.classify
}

// InvalidateAdminToken forces the next Admin call to mint a new token.
func (c *Client) InvalidateAdminToken() {
	c.admin.InvalidateCache()
}

// URL returns the absolute endpoint URL for a surface, without query parameters.
func (c *Client) URL(endpoint string, surface domain.Surface) string {
	return c.baseURL + apiPrefix + string(surface) + "/" + strings.TrimPrefix(endpoint, "/")
}

// MakeRequest authenticates, sends and decodes one call, retrying per the client's policy.
func (c *Client) MakeRequest(ctx context.Context, req Request) (Result, error) {
	requestID := req.RequestID
	if requestID == "" {
		ctx, requestID = domain.EnsureRequestID(ctx)
	} else {
		ctx = domain.NewContextWithRequestID(ctx, requestID)
	}

	provider, ok := c.providers.For(req.Surface)
	if !ok {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Unknown API surface %q", req.Surface),
			"Use 'content' or 'admin'",
			requestID,
		)
	}

	material, err := provider.Authenticate(requestID)
	if err != nil {
		return nil, err
	}

	target := c.URL(req.Endpoint, req.Surface)

	var key string
	if c.cache != nil && req.Surface == domain.SurfaceContent && req.Method == http.MethodGet {
		key = cacheKey(target, req.Params)
		if cached, ok := c.cache.Get(ctx, key); ok {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "ghost api response served from cache",
				slog.String("url", target),
			)
			return cached, nil
		}
	}

	query := url.Values{}
	for k, vs := range req.Params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range material.Query {
		query.Set(k, v)
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("Failed to encode request body: %v", err),
				"Request body must be JSON serializable",
				requestID,
			).WithCause(err)
		}
	}

	c.logger.LogAttrs(ctx, slog.LevelInfo, "ghost api request",
		slog.String("method", req.Method),
		slog.String("url", target),
		slog.String("surface", string(req.Surface)),
	)

	start := time.Now()
	result, err := c.guarded(ctx, req.Surface, requestID, func(ctx context.Context) (Result, error) {
		return execution.WithRetry(ctx, c.retrier, requestID, func(ctx context.Context) (Result, error) {
			return c.send(ctx, req.Method, target, query, material.Headers, body, req.Surface, requestID)
		})
	})
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "ghost api request failed",
			slog.String("method", req.Method),
			slog.String("url", target),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return nil, err
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "ghost api request succeeded",
		slog.String("method", req.Method),
		slog.String("url", target),
		slog.Duration("elapsed", time.Since(start)),
	)

	switch {
	case key != "":
		c.cache.Set(ctx, key, result, 0)
	case c.cache != nil && req.Method != http.MethodGet:
		c.cache.Clear(ctx)
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, method, target string, query url.Values, headers map[string]string, body []byte, surface domain.Surface, requestID string) (Result, error) {
	if err := c.limiter.Wait(ctx, string(surface)); err != nil {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("Rate limiter wait aborted: %v", err),
			fmt.Sprintf("Request to %s failed", target),
			requestID,
		).WithCause(err)
	}

	full := target
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, full, reader)
	if err != nil {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Invalid request: %v", stripURL(err)),
			fmt.Sprintf("%s %s", method, target),
			requestID,
		)
	}
	httpReq.Header.Set("User-Agent", constants.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, err, target, requestID)
	}
	defer resp.Body.Close()

	return handleResponse(resp, requestID)
}
