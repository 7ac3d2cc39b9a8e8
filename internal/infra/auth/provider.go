package auth

import "github.com/spounge-ai/ghost-mcp/internal/domain"

// Material is the per-request auth output: headers, query parameters, or both.
type Material struct {
	Headers map[string]string
	Query   map[string]string
}

// Provider is implemented by exactly two strategies, one per API surface.
type Provider interface {
	Surface() domain.Surface
	IsConfigured() bool
	Authenticate(requestID string) (Material, error)
}

var (
	_ Provider = (*AdminTokenProvider)(nil)
	_ Provider = (*ContentKeyProvider)(nil)
)

// Providers selects the strategy for a surface.
type Providers map[domain.Surface]Provider

func NewProviders(content *ContentKeyProvider, admin *AdminTokenProvider) Providers {
	return Providers{
		domain.SurfaceContent: content,
		domain.SurfaceAdmin:   admin,
	}
}

func (p Providers) For(surface domain.Surface) (Provider, bool) {
	provider, ok := p[surface]
	return provider, ok
}
