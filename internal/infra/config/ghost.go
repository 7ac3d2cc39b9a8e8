package config

import (
	"strings"
	"time"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
	"github.com/spounge-ai/ghost-mcp/pkg/execution"
)

// GhostConfig describes the upstream Ghost instance and how to call it.
type GhostConfig struct {
	URL                string      `mapstructure:"url"                  validate:"required,url"`
	ContentAPIKey      string      `mapstructure:"content_api_key"`
	AdminAPIKey        string      `mapstructure:"admin_api_key"`
	Version            string      `mapstructure:"version"`
	Mode               domain.Mode `mapstructure:"mode"                 validate:"required,oneof=readonly readwrite auto"`
	TimeoutSeconds     int         `mapstructure:"timeout"              validate:"gt=0"`
	MaxRetries         int         `mapstructure:"max_retries"          validate:"gte=0,lte=10"`
	RetryBackoffFactor float64     `mapstructure:"retry_backoff_factor" validate:"gte=1"`
	RateLimit          float64     `mapstructure:"rate_limit"           validate:"gte=0"`
	RateBurst          int         `mapstructure:"rate_burst"           validate:"gte=1"`
	BreakerFailures    int         `mapstructure:"breaker_failures"     validate:"gte=0"`
	BreakerReset       int         `mapstructure:"breaker_reset"        validate:"gte=1"`
	CacheTTL           int         `mapstructure:"cache_ttl"            validate:"gte=0"`
}

func (g GhostConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// BaseURL returns the configured URL with exactly one trailing slash.
func (g GhostConfig) BaseURL() string {
	return strings.TrimRight(g.URL, "/") + "/"
}

// RetryPolicy combines configured retry count and multiplier with the default delays.
func (g GhostConfig) RetryPolicy() execution.RetryPolicy {
	p := execution.DefaultRetryPolicy()
	p.MaxRetries = g.MaxRetries
	p.BackoffMultiplier = g.RetryBackoffFactor
	return p
}

// BreakerResetTimeout is how long an open breaker waits before probing again.
func (g GhostConfig) BreakerResetTimeout() time.Duration {
	return time.Duration(g.BreakerReset) * time.Second
}

func (g GhostConfig) CacheTTLDuration() time.Duration {
	return time.Duration(g.CacheTTL) * time.Second
}

func (g GhostConfig) ContentConfigured() bool {
	return g.ContentAPIKey != ""
}

func (g GhostConfig) AdminConfigured() bool {
	return g.AdminAPIKey != "" && strings.Contains(g.AdminAPIKey, ":")
}
