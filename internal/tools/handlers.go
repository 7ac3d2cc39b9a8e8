package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/spounge-ai/ghost-mcp/internal/client"
	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
	"github.com/spounge-ai/ghost-mcp/internal/validation"
)

const defaultProbeTimeout = 30 * time.Second

// Handlers holds the collaborators shared by every tool.
type Handlers struct {
	client       *client.Client
	validator    *validation.Validator
	audit        domain.AuditLogger
	classifier   *apperrors.Classifier
	mode         domain.Mode
	probeTimeout time.Duration
	logger       *slog.Logger
}

type Option func(*Handlers)

// WithProbeTimeout bounds each connection-check probe, retries included.
func WithProbeTimeout(d time.Duration) Option {
	return func(h *Handlers) { h.probeTimeout = d }
}

func NewHandlers(c *client.Client, v *validation.Validator, audit domain.AuditLogger, mode domain.Mode, logger *slog.Logger, opts ...Option) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		client:       c,
		validator:    v,
		audit:        audit,
		classifier:   c.Classifier(),
		mode:         mode,
		probeTimeout: defaultProbeTimeout,
		logger:       logger.With("component", "tools"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Envelope is the JSON body of a failed tool call.
type Envelope struct {
	Error     string `json:"error"`
	Context   string `json:"context,omitempty"`
	Category  string `json:"category"`
	Code      string `json:"code,omitempty"`
	ErrorID   string `json:"error_id"`
	RequestID string `json:"request_id"`
	Retryable bool   `json:"retryable"`
}

type toolFunc[In any] func(ctx context.Context, in In) (any, error)

// handle adapts fn into an SDK handler. Every invocation gets a correlation id and an audit record,
// and failures are rendered as an error envelope instead of a protocol fault.
func handle[In any](h *Handlers, name string, surface domain.Surface, fn toolFunc[In]) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		ctx, requestID := domain.EnsureRequestID(ctx)
		start := time.Now()

		payload, err := fn(ctx, in)
		if err == nil {
			var result *mcp.CallToolResult
			result, err = textResult(payload)
			if err == nil {
				h.audit.AuditLog(ctx, name, surface, time.Since(start), nil)
				return result, nil, nil
			}
			err = apperrors.NewMCPProtocolError(err.Error(), "Failed to encode tool result", requestID).WithCause(err)
		}

		h.audit.AuditLog(ctx, name, surface, time.Since(start), err)
		return h.errorResult(ctx, err, requestID), nil, nil
	}
}

func textResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// retryable mirrors the client's retry decision. Protocol failures are raised locally and never retried.
func (h *Handlers) retryable(e *apperrors.Error) bool {
	if e.Category == apperrors.CategoryMCPProtocol {
		return false
	}
	return h.classifier.ShouldRetry(e)
}

func (h *Handlers) errorResult(ctx context.Context, err error, requestID string) *mcp.CallToolResult {
	e, ok := apperrors.As(err)
	if !ok {
		e = apperrors.NewMCPProtocolError(err.Error(), "", requestID).WithCause(err)
	}
	if e.RequestID == "" {
		e.RequestID = requestID
	}

	env := Envelope{
		Error:     e.Message,
		Context:   e.Context,
		Category:  string(e.Category),
		Code:      e.Code,
		ErrorID:   e.ID,
		RequestID: e.RequestID,
		Retryable: h.retryable(e),
	}

	h.logger.LogAttrs(ctx, slog.LevelDebug, "tool returned error", slog.Any("error", e))

	data, marshalErr := json.MarshalIndent(env, "", "  ")
	if marshalErr != nil {
		data = []byte(fmt.Sprintf(`{"error": %q}`, e.Message))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
