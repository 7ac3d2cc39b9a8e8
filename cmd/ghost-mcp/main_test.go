package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/ghost-mcp/internal/constants"
)

func setGhostEnv(t *testing.T, url, contentKey, adminKey string) {
	t.Helper()
	t.Setenv("GHOST_URL", url)
	t.Setenv("GHOST_CONTENT_API_KEY", contentKey)
	t.Setenv("GHOST_ADMIN_API_KEY", adminKey)
	t.Setenv("GHOST_MODE", "auto")
	t.Setenv("GHOST_MAX_RETRIES", "0")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--version"}, &stdout, &stderr))
	assert.Equal(t, constants.ServiceName+" "+constants.ServiceVersion+"\n", stdout.String())
}

func TestRun_RejectsArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"serve"}, &stdout, &stderr)
	assert.EqualError(t, err, "unexpected argument: serve")

	err = run(context.Background(), []string{"--no-such-flag"}, &stdout, &stderr)
	assert.Error(t, err)
}

func TestRun_MissingEnvFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--env-file", t.TempDir() + "/missing.env"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRun_CheckHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"settings": {"title": "Blog"}}`))
	}))
	defer srv.Close()
	setGhostEnv(t, srv.URL, "0123456789abcdef0123456789", "")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--check"}, &stdout, &stderr))

	var status map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &status))
	assert.Equal(t, true, status["content_api_configured"])
	assert.Equal(t, false, status["admin_api_configured"])

	probes := status["connection_test"].(map[string]any)
	assert.Equal(t, "connected", probes["content_api"])
	assert.Equal(t, "not configured", probes["admin_api"])
}

func TestRun_CheckFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors": [{"message": "Unknown Content API Key"}]}`))
	}))
	defer srv.Close()
	setGhostEnv(t, srv.URL, "0123456789abcdef0123456789", "")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--check"}, &stdout, &stderr)

	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.code)
	assert.True(t, strings.Contains(stdout.String(), "failed: Unknown Content API Key"), stdout.String())
}
