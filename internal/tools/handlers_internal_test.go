package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/ghost-mcp/internal/client"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	"github.com/spounge-ai/ghost-mcp/internal/infra/audit"
	"github.com/spounge-ai/ghost-mcp/internal/infra/config"
	"github.com/spounge-ai/ghost-mcp/internal/validation"
)

func newTestHandlers(t *testing.T, opts ...client.Option) *Handlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := client.New(config.GhostConfig{
		URL:                "http://localhost:2368",
		Mode:               domain.ModeAuto,
		TimeoutSeconds:     5,
		RetryBackoffFactor: 2,
		RateBurst:          1,
	}, logger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	v, err := validation.NewValidator()
	require.NoError(t, err)

	return NewHandlers(c, v, audit.NewAuditLogger(logger), domain.ModeAuto, logger)
}

func decodeEnvelope(t *testing.T, res *mcp.CallToolResult) Envelope {
	t.Helper()
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(text.Text), &env))
	return env
}

func TestErrorResult_RetryableFollowsClientClassifier(t *testing.T) {
	upload := apperrors.NewFileUploadError("upload failed", "", "req-1")

	tests := []struct {
		name string
		opts []client.Option
		want bool
	}{
		{"unclassified retried by default", nil, true},
		{"unclassified retry disabled", []client.Option{client.WithRetryUnclassified(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, tt.opts...)
			env := decodeEnvelope(t, h.errorResult(context.Background(), upload, "req-1"))
			assert.Equal(t, string(apperrors.CategoryFileUpload), env.Category)
			assert.Equal(t, tt.want, env.Retryable)
		})
	}
}

func TestErrorResult_ProtocolErrorsNotRetryable(t *testing.T) {
	h := newTestHandlers(t)

	env := decodeEnvelope(t, h.errorResult(context.Background(), errors.New("cannot encode"), "req-2"))
	assert.Equal(t, string(apperrors.CategoryMCPProtocol), env.Category)
	assert.Equal(t, "cannot encode", env.Error)
	assert.Equal(t, "req-2", env.RequestID)
	assert.False(t, env.Retryable)
}

func TestErrorResult_UpstreamStatus(t *testing.T) {
	h := newTestHandlers(t)

	unavailable := apperrors.NewGhostAPIError("Server error", "", "HTTP 503", "req-3")
	assert.True(t, decodeEnvelope(t, h.errorResult(context.Background(), unavailable, "req-3")).Retryable)

	missing := apperrors.NewGhostAPIError("Post not found.", "NotFoundError", "HTTP 404", "req-4")
	assert.False(t, decodeEnvelope(t, h.errorResult(context.Background(), missing, "req-4")).Retryable)
}
