package auth_test

import (
	"encoding/hex"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	"github.com/spounge-ai/ghost-mcp/internal/infra/auth"
)

const (
	keyID      = "0123456789abcdef01234567"
	keySecret  = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	adminKey   = keyID + ":" + keySecret
	contentKey = "0123456789abcdef0123456789"
)

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

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func bearer(t *testing.T, p *auth.AdminTokenProvider) string {
	t.Helper()
	headers, err := p.AuthHeaders("req-1")
	require.NoError(t, err)
	value := headers["Authorization"]
	require.True(t, strings.HasPrefix(value, "Ghost "))
	return strings.TrimPrefix(value, "Ghost ")
}

// TestAdminTokenProvider_MintsVerifiableToken verifies header kid, aud, iat and exp.
func TestAdminTokenProvider_MintsVerifiableToken(t *testing.T) {
	clock := newClock()
	p := auth.NewAdminTokenProvider(adminKey, nil, auth.WithClock(clock.Now))
	require.True(t, p.IsConfigured())
	require.True(t, p.ValidateKeyFormat())

	raw := bearer(t, p)
	secret, err := hex.DecodeString(keySecret)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(auth.AdminAudience),
		jwt.WithTimeFunc(clock.Now),
	)
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, keyID, token.Header["kid"])
	assert.Equal(t, auth.AdminAudience, claims["aud"])

	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Unix(), iat.Unix())
	assert.Equal(t, int64(300), exp.Unix()-iat.Unix())
}

// TestAdminTokenProvider_CachesUntilMargin verifies reuse inside the window and refresh after it.
func TestAdminTokenProvider_CachesUntilMargin(t *testing.T) {
	clock := newClock()
	p := auth.NewAdminTokenProvider(adminKey, nil, auth.WithClock(clock.Now))

	first := bearer(t, p)

	clock.Advance(4 * time.Minute)
	assert.Equal(t, first, bearer(t, p))

	clock.Advance(31 * time.Second)
	refreshed := bearer(t, p)
	assert.NotEqual(t, first, refreshed)

	clock.Advance(time.Second)
	assert.Equal(t, refreshed, bearer(t, p))
}

// TestAdminTokenProvider_InvalidateCache verifies the cache is dropped unconditionally.
func TestAdminTokenProvider_InvalidateCache(t *testing.T) {
	clock := newClock()
	p := auth.NewAdminTokenProvider(adminKey, nil, auth.WithClock(clock.Now))

	first := bearer(t, p)
	p.InvalidateCache()
	clock.Advance(time.Second)

	assert.NotEqual(t, first, bearer(t, p))
}

func TestAdminTokenProvider_Unconfigured(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"no separator", "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := auth.NewAdminTokenProvider(tt.key, nil)
			assert.False(t, p.IsConfigured())

			_, err := p.AuthHeaders("req-2")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrAuthentication)

			e, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "req-2", e.RequestID)
		})
	}
}

func TestAdminTokenProvider_BadSecret(t *testing.T) {
	p := auth.NewAdminTokenProvider(keyID+":not-hex", nil)
	require.True(t, p.IsConfigured())
	assert.False(t, p.ValidateKeyFormat())

	_, err := p.AuthHeaders("")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	assert.Contains(t, err.Error(), "Failed to generate JWT token")
}

func TestAdminTokenProvider_MissingID(t *testing.T) {
	p := auth.NewAdminTokenProvider(":"+keySecret, nil)

	_, err := p.AuthHeaders("")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

// TestAdminTokenProvider_ConcurrentCallers exercises the unsynchronized refresh path.
func TestAdminTokenProvider_ConcurrentCallers(t *testing.T) {
	p := auth.NewAdminTokenProvider(adminKey, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			headers, err := p.AuthHeaders("")
			assert.NoError(t, err)
			assert.NotEmpty(t, headers["Authorization"])
		}()
	}
	wg.Wait()
}

func TestContentKeyProvider(t *testing.T) {
	p := auth.NewContentKeyProvider(contentKey, nil)
	require.True(t, p.IsConfigured())
	assert.True(t, p.ValidateKeyFormat())

	params, err := p.AuthQueryParams("req-3")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"key": contentKey}, params)

	material, err := p.Authenticate("req-3")
	require.NoError(t, err)
	assert.Equal(t, contentKey, material.Query["key"])
	assert.Empty(t, material.Headers)
}

func TestContentKeyProvider_Unconfigured(t *testing.T) {
	p := auth.NewContentKeyProvider("", nil)
	assert.False(t, p.IsConfigured())

	_, err := p.AuthQueryParams("req-4")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestContentKeyProvider_FormatIsAdvisory(t *testing.T) {
	p := auth.NewContentKeyProvider("short", nil)
	assert.False(t, p.ValidateKeyFormat())

	params, err := p.AuthQueryParams("")
	require.NoError(t, err)
	assert.Equal(t, "short", params["key"])
}

func TestProviders_For(t *testing.T) {
	providers := auth.NewProviders(
		auth.NewContentKeyProvider(contentKey, nil),
		auth.NewAdminTokenProvider(adminKey, nil),
	)

	content, ok := providers.For(domain.SurfaceContent)
	require.True(t, ok)
	assert.Equal(t, domain.SurfaceContent, content.Surface())

	admin, ok := providers.For(domain.SurfaceAdmin)
	require.True(t, ok)
	material, err := admin.Authenticate("")
	require.NoError(t, err)
	assert.Contains(t, material.Headers["Authorization"], "Ghost ")

	_, ok = providers.For(domain.Surface("members"))
	assert.False(t, ok)
}
