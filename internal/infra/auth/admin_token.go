package auth

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	pkgvalidator "github.com/spounge-ai/ghost-mcp/pkg/validator"
)

const (
	// AdminAudience is the aud claim Ghost expects on Admin API tokens.
	AdminAudience = "/admin/"
	// AuthScheme prefixes the token in the Authorization header.
	AuthScheme = "Ghost"

	tokenLifetime = 5 * time.Minute
	refreshMargin = 30 * time.Second
)

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// AdminTokenProvider mints short-lived HS256 tokens from an Admin API key pair.
//
// The cache is read and replaced without holding a lock across minting, so
// concurrent callers that all see an expired token may each mint their own.
// Every minted token is independently valid.
type AdminTokenProvider struct {
	apiKey string
	now    func() time.Time
	logger *slog.Logger
	cache  atomic.Pointer[cachedToken]
}

type AdminOption func(*AdminTokenProvider)

// WithClock overrides the time source used for iat/exp and cache expiry.
func WithClock(now func() time.Time) AdminOption {
	return func(p *AdminTokenProvider) {
		p.now = now
	}
}

func NewAdminTokenProvider(apiKey string, logger *slog.Logger, opts ...AdminOption) *AdminTokenProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &AdminTokenProvider{apiKey: apiKey, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if apiKey == "" {
		logger.Warn("no Admin API key configured")
	}
	return p
}

func (p *AdminTokenProvider) Surface() domain.Surface {
	return domain.SurfaceAdmin
}

func (p *AdminTokenProvider) IsConfigured() bool {
	return p.apiKey != "" && strings.Contains(p.apiKey, ":")
}

// ValidateKeyFormat is advisory; minting does not depend on it.
func (p *AdminTokenProvider) ValidateKeyFormat() bool {
	return pkgvalidator.IsAdminAPIKey(p.apiKey)
}

// AuthHeaders returns the Authorization header for an Admin API request.
func (p *AdminTokenProvider) AuthHeaders(requestID string) (map[string]string, error) {
	token, err := p.token(requestID)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": AuthScheme + " " + token}, nil
}

func (p *AdminTokenProvider) Authenticate(requestID string) (Material, error) {
	headers, err := p.AuthHeaders(requestID)
	if err != nil {
		return Material{}, err
	}
	return Material{Headers: headers}, nil
}

// InvalidateCache drops the cached token so the next call mints a fresh one.
func (p *AdminTokenProvider) InvalidateCache() {
	p.cache.Store(nil)
}

func (p *AdminTokenProvider) token(requestID string) (string, error) {
	if !p.IsConfigured() {
		return "", apperrors.NewAuthenticationError(
			"Admin API key not configured",
			"Set GHOST_ADMIN_API_KEY to '<id>:<secret>'",
			requestID,
		)
	}

	now := p.now()
	if cached := p.cache.Load(); cached != nil && now.Before(cached.expiresAt.Add(-refreshMargin)) {
		return cached.value, nil
	}

	signed, err := p.mint(now, requestID)
	if err != nil {
		return "", err
	}
	p.cache.Store(&cachedToken{value: signed, expiresAt: now.Add(tokenLifetime)})

	p.logger.Debug("minted Admin API token", "request_id", requestID, "expires_at", now.Add(tokenLifetime))
	return signed, nil
}

func (p *AdminTokenProvider) mint(now time.Time, requestID string) (string, error) {
	keyID, secret, ok := strings.Cut(p.apiKey, ":")
	if !ok || keyID == "" || secret == "" {
		return "", apperrors.NewAuthenticationError(
			"Invalid Admin API key format",
			"Expected '<id>:<secret>'",
			requestID,
		)
	}

	secretBytes, err := hex.DecodeString(secret)
	if err != nil {
		return "", apperrors.NewAuthenticationError(
			fmt.Sprintf("Failed to generate JWT token: %v", err),
			"JWT token generation failed",
			requestID,
		).WithCause(err)
	}

	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
		"aud": AdminAudience,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = keyID

	signed, err := token.SignedString(secretBytes)
	if err != nil {
		return "", apperrors.NewAuthenticationError(
			fmt.Sprintf("Failed to generate JWT token: %v", err),
			"JWT token generation failed",
			requestID,
		).WithCause(err)
	}
	return signed, nil
}
