package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/spounge-ai/ghost-mcp/internal/client"
	"github.com/spounge-ai/ghost-mcp/internal/constants"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	"github.com/spounge-ai/ghost-mcp/pkg/execution"
)

const (
	ProbeConnected     = "connected"
	ProbeNotConfigured = "not configured"
	probeFailedPrefix  = "failed: "
)

type ConnectionStatus struct {
	GhostURL             string         `json:"ghost_url"`
	ContentAPIConfigured bool           `json:"content_api_configured"`
	AdminAPIConfigured   bool           `json:"admin_api_configured"`
	Mode                 domain.Mode    `json:"mode"`
	ConnectionTest       ConnectionTest `json:"connection_test"`
}

type ConnectionTest struct {
	ContentAPI string `json:"content_api"`
	AdminAPI   string `json:"admin_api"`
}

// Healthy reports whether every configured surface answered.
func (s ConnectionStatus) Healthy() bool {
	ok := func(probe string) bool { return probe == ProbeConnected || probe == ProbeNotConfigured }
	return ok(s.ConnectionTest.ContentAPI) && ok(s.ConnectionTest.AdminAPI)
}

func (h *Handlers) RegisterConnectionTool(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        constants.ToolCheckConnection,
		Description: "Check connectivity to the Ghost instance and which API keys are configured.",
	}, handle(h, constants.ToolCheckConnection, "", func(ctx context.Context, _ EmptyInput) (any, error) {
		return h.CheckConnection(ctx), nil
	}))
}

// CheckConnection probes Content settings/ and Admin site/ concurrently.
// Probe failures are reported in the status, never returned.
func (h *Handlers) CheckConnection(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{
		GhostURL:             h.client.BaseURL(),
		ContentAPIConfigured: h.client.ContentConfigured(),
		AdminAPIConfigured:   h.client.AdminConfigured(),
		Mode:                 h.mode,
		ConnectionTest: ConnectionTest{
			ContentAPI: ProbeNotConfigured,
			AdminAPI:   ProbeNotConfigured,
		},
	}

	var g errgroup.Group
	if status.ContentAPIConfigured {
		g.Go(func() error {
			status.ConnectionTest.ContentAPI = h.probe(ctx, h.client.GetSettings)
			return nil
		})
	}
	if status.AdminAPIConfigured {
		g.Go(func() error {
			status.ConnectionTest.AdminAPI = h.probe(ctx, h.client.GetSite)
			return nil
		})
	}
	_ = g.Wait()

	return status
}

func (h *Handlers) probe(ctx context.Context, call func(context.Context) (client.Result, error)) string {
	_, err := execution.WithTimeout(ctx, h.probeTimeout, call)
	if err != nil {
		return probeFailedPrefix + err.Error()
	}
	return ProbeConnected
}
