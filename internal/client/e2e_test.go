package client_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/ghost-mcp/internal/client"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	"github.com/spounge-ai/ghost-mcp/internal/infra/config"
)

// TestE2E_ContentAPI runs read-only calls against a real Ghost instance.
// Set GHOST_E2E_URL and GHOST_E2E_CONTENT_API_KEY to enable it.
func TestE2E_ContentAPI(t *testing.T) {
	url := os.Getenv("GHOST_E2E_URL")
	key := os.Getenv("GHOST_E2E_CONTENT_API_KEY")
	if url == "" || key == "" {
		t.Skip("GHOST_E2E_URL and GHOST_E2E_CONTENT_API_KEY not set")
	}

	c, err := client.New(config.GhostConfig{
		URL:                url,
		ContentAPIKey:      key,
		Mode:               domain.ModeReadOnly,
		TimeoutSeconds:     30,
		MaxRetries:         1,
		RetryBackoffFactor: 2,
		RateBurst:          1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	settings, err := c.GetSettings(ctx)
	require.NoError(t, err)
	assert.Contains(t, settings, "settings")

	posts, err := c.GetPosts(ctx, client.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Contains(t, posts, "posts")
	assert.Contains(t, posts, "meta")
}
