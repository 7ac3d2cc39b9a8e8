package domain

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// NewContextWithRequestID attaches a correlation id to the context.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext retrieves the correlation id from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// EnsureRequestID returns ctx carrying a correlation id, generating one if absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := RequestIDFromContext(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return NewContextWithRequestID(ctx, id), id
}
