package domain

import (
	"context"
	"time"
)

// AuditLogger records one event per tool invocation.
type AuditLogger interface {
	AuditLog(ctx context.Context, tool string, surface Surface, duration time.Duration, err error)
}

type AuditEvent struct {
	ID            string
	Tool          string
	Surface       Surface
	RequestID     string
	Success       bool
	Duration      time.Duration
	ErrorCategory string
	ErrorCode     string
	Error         string
	Timestamp     time.Time
}
