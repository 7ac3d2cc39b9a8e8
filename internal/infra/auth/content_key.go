package auth

import (
	"log/slog"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	pkgvalidator "github.com/spounge-ai/ghost-mcp/pkg/validator"
)

// ContentKeyProvider attaches the static Content API key as a query parameter.
type ContentKeyProvider struct {
	apiKey string
}

func NewContentKeyProvider(apiKey string, logger *slog.Logger) *ContentKeyProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if apiKey == "" {
		logger.Warn("no Content API key configured")
	}
	return &ContentKeyProvider{apiKey: apiKey}
}

func (p *ContentKeyProvider) Surface() domain.Surface {
	return domain.SurfaceContent
}

func (p *ContentKeyProvider) IsConfigured() bool {
	return p.apiKey != ""
}

// ValidateKeyFormat is advisory.
func (p *ContentKeyProvider) ValidateKeyFormat() bool {
	return pkgvalidator.IsContentAPIKey(p.apiKey)
}

func (p *ContentKeyProvider) AuthQueryParams(requestID string) (map[string]string, error) {
	if !p.IsConfigured() {
		return nil, apperrors.NewAuthenticationError(
			"Content API key not configured",
			"Set GHOST_CONTENT_API_KEY",
			requestID,
		)
	}
	return map[string]string{"key": p.apiKey}, nil
}

func (p *ContentKeyProvider) Authenticate(requestID string) (Material, error) {
	params, err := p.AuthQueryParams(requestID)
	if err != nil {
		return Material{}, err
	}
	return Material{Query: params}, nil
}
