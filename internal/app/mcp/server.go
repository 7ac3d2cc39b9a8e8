package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/spounge-ai/ghost-mcp/internal/constants"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	"github.com/spounge-ai/ghost-mcp/internal/infra/config"
	"github.com/spounge-ai/ghost-mcp/internal/tools"
	"github.com/spounge-ai/ghost-mcp/pkg/patterns/lifecycle"
)

var ErrAlreadyRunning = errors.New("mcp server already running")

// Server exposes the Ghost tools over one MCP transport.
type Server struct {
	mcpServer *mcp.Server
	transport mcp.Transport
	tools     []string
	logger    *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
	running bool
}

var _ lifecycle.ManagedResource = (*Server)(nil)

type Option func(*Server)

// WithTransport replaces the default stdio transport.
func WithTransport(t mcp.Transport) Option {
	return func(s *Server) { s.transport = t }
}

func New(cfg config.GhostConfig, handlers *tools.Handlers, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    constants.ServiceName,
			Version: constants.ServiceVersion,
		}, nil),
		transport: &mcp.StdioTransport{},
		logger:    logger.With("component", "mcp_server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools(cfg, handlers)
	return s
}

// registerTools picks tool families by mode and configured keys.
func (s *Server) registerTools(cfg config.GhostConfig, handlers *tools.Handlers) {
	mode := cfg.Mode
	s.logger.Info("registering MCP tools", "mode", mode)

	handlers.RegisterConnectionTool(s.mcpServer)
	s.tools = append(s.tools, constants.ToolCheckConnection)

	if cfg.ContentConfigured() {
		handlers.RegisterContentTools(s.mcpServer)
		s.tools = append(s.tools, constants.ContentTools...)
	} else {
		s.logger.Warn("content API key not configured, content tools not available")
	}

	switch {
	case !mode.AllowsWrites():
		s.logger.Info("running in read-only mode, admin tools not registered")
	case cfg.AdminConfigured():
		handlers.RegisterAdminTools(s.mcpServer)
		s.tools = append(s.tools, constants.AdminTools...)
	case mode == domain.ModeReadWrite:
		s.logger.Warn("admin API key not configured, admin tools not available in readwrite mode")
	default:
		s.logger.Info("admin API key not configured, running read-only")
	}
}

// Tools returns the names of the registered tools.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Run serves until ctx is cancelled or the peer disconnects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-s.Done()
	return s.result()
}

// Done is closed when the current run ends. It is nil before the first Start.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.runErr = nil
	s.running = true

	s.logger.Info("MCP server starting", "tools", len(s.tools))

	go func(done chan struct{}) {
		defer close(done)
		err := s.mcpServer.Run(runCtx, s.transport)

		s.mu.Lock()
		s.running = false
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			s.runErr = err
		}
		s.mu.Unlock()
	}(s.done)

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	s.logger.Info("stopping MCP server")
	cancel()

	select {
	case <-done:
		s.logger.Info("MCP server stopped")
		return s.result()
	case <-ctx.Done():
		return fmt.Errorf("mcp server did not stop in time: %w", ctx.Err())
	}
}

func (s *Server) Health(context.Context) lifecycle.HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		if s.runErr != nil {
			return lifecycle.HealthStatus{Ready: false, Message: s.runErr.Error()}
		}
		return lifecycle.HealthStatus{Ready: false, Message: "not running"}
	}
	return lifecycle.HealthStatus{Ready: true, Message: fmt.Sprintf("%d tools registered", len(s.tools))}
}

func (s *Server) result() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr
}
