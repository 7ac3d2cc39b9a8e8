package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
	apperrors "github.com/spounge-ai/ghost-mcp/internal/errors"
)

const eventName = "tool_audit"

// Logger implements the domain.AuditLogger interface on top of slog.
type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}
}

// AuditLog emits one tool_audit record. Failures are logged at warn level.
func (l *Logger) AuditLog(ctx context.Context, tool string, surface domain.Surface, duration time.Duration, err error) {
	event := l.newEvent(ctx, tool, surface, duration, err)

	logAttrs := []slog.Attr{
		slog.String("audit_id", event.ID),
		slog.String("tool", event.Tool),
		slog.String("surface", string(event.Surface)),
		slog.Bool("success", event.Success),
		slog.Duration("duration", event.Duration),
		slog.String("request_id", event.RequestID),
		slog.Time("timestamp", event.Timestamp),
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
		logAttrs = append(logAttrs,
			slog.String("error_category", event.ErrorCategory),
			slog.String("error_code", event.ErrorCode),
			slog.String("error", event.Error),
		)
	}

	// request_id is set explicitly, so the handler must not add it from ctx again.
	l.logger.LogAttrs(context.Background(), level, eventName, logAttrs...)
}

func (l *Logger) newEvent(ctx context.Context, tool string, surface domain.Surface, duration time.Duration, err error) *domain.AuditEvent {
	event := &domain.AuditEvent{
		ID:        uuid.New().String(),
		Tool:      tool,
		Surface:   surface,
		Success:   err == nil,
		Duration:  duration,
		Timestamp: l.now().UTC(),
	}
	if id, ok := domain.RequestIDFromContext(ctx); ok {
		event.RequestID = id
	}

	if err != nil {
		event.Error = err.Error()
		if e, ok := apperrors.As(err); ok {
			event.ErrorCategory = string(e.Category)
			event.ErrorCode = e.Code
			if event.RequestID == "" {
				event.RequestID = e.RequestID
			}
		}
	}
	return event
}
