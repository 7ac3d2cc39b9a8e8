package mcp

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/ghost-mcp/internal/client"
	"github.com/spounge-ai/ghost-mcp/internal/constants"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	"github.com/spounge-ai/ghost-mcp/internal/infra/audit"
	"github.com/spounge-ai/ghost-mcp/internal/infra/config"
	"github.com/spounge-ai/ghost-mcp/internal/tools"
	"github.com/spounge-ai/ghost-mcp/internal/validation"
)

const (
	adminKey   = "0123456789abcdef01234567:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	contentKey = "0123456789abcdef0123456789"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandlers(t *testing.T, cfg config.GhostConfig) *tools.Handlers {
	t.Helper()
	logger := discardLogger()

	c, err := client.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	v, err := validation.NewValidator()
	require.NoError(t, err)

	return tools.NewHandlers(c, v, audit.NewAuditLogger(logger), cfg.Mode, logger)
}

func ghostConfig(mode domain.Mode, contentKeyValue, adminKeyValue string) config.GhostConfig {
	return config.GhostConfig{
		URL:                "http://localhost:2368",
		ContentAPIKey:      contentKeyValue,
		AdminAPIKey:        adminKeyValue,
		Mode:               mode,
		TimeoutSeconds:     5,
		MaxRetries:         0,
		RetryBackoffFactor: 2,
		RateBurst:          1,
	}
}

func TestNew_RegistersToolsByMode(t *testing.T) {
	all := len(constants.ContentTools) + len(constants.AdminTools) + 1

	tests := []struct {
		name     string
		cfg      config.GhostConfig
		want     int
		hasAdmin bool
	}{
		{"auto with both keys", ghostConfig(domain.ModeAuto, contentKey, adminKey), all, true},
		{"readwrite with both keys", ghostConfig(domain.ModeReadWrite, contentKey, adminKey), all, true},
		{"readonly ignores admin key", ghostConfig(domain.ModeReadOnly, contentKey, adminKey), len(constants.ContentTools) + 1, false},
		{"readwrite without admin key", ghostConfig(domain.ModeReadWrite, contentKey, ""), len(constants.ContentTools) + 1, false},
		{"auto admin only", ghostConfig(domain.ModeAuto, "", adminKey), len(constants.AdminTools) + 1, true},
		{"no keys", ghostConfig(domain.ModeAuto, "", ""), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.cfg, newHandlers(t, tt.cfg), discardLogger())

			names := s.Tools()
			assert.Len(t, names, tt.want)
			assert.Contains(t, names, constants.ToolCheckConnection)
			if tt.hasAdmin {
				assert.Contains(t, names, constants.ToolCreatePost)
			} else {
				assert.NotContains(t, names, constants.ToolCreatePost)
			}
		})
	}
}

func TestServer_Lifecycle(t *testing.T) {
	cfg := ghostConfig(domain.ModeReadOnly, contentKey, "")
	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	s := New(cfg, newHandlers(t, cfg), discardLogger(), WithTransport(serverTransport))
	assert.False(t, s.Health(context.Background()).Ready)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	session, err := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil).
		Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.ListTools(context.Background(), &sdk.ListToolsParams{})
	require.NoError(t, err)

	var listed []string
	for _, tool := range res.Tools {
		listed = append(listed, tool.Name)
	}
	want := s.Tools()
	sort.Strings(listed)
	sort.Strings(want)
	assert.Equal(t, want, listed)

	health := s.Health(context.Background())
	assert.True(t, health.Ready)
	assert.Contains(t, health.Message, "tools registered")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.Health(context.Background()).Ready)

	assert.NoError(t, s.Stop(ctx))
}

func TestStop_NeverStarted(t *testing.T) {
	cfg := ghostConfig(domain.ModeAuto, "", "")
	s := New(cfg, newHandlers(t, cfg), discardLogger())
	assert.NoError(t, s.Stop(context.Background()))
}
