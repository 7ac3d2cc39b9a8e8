package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spounge-ai/ghost-mcp/internal/domain"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := domain.RequestIDFromContext(ctx)
	assert.False(t, ok)

	ctx = domain.NewContextWithRequestID(ctx, "req-1")
	id, ok := domain.RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)

	same, sameID := domain.EnsureRequestID(ctx)
	assert.Equal(t, "req-1", sameID)
	assert.Equal(t, ctx, same)
}

func TestEnsureRequestID_Generates(t *testing.T) {
	ctx, id := domain.EnsureRequestID(context.Background())
	assert.NotEmpty(t, id)

	got, ok := domain.RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestMode_AllowsWrites(t *testing.T) {
	assert.False(t, domain.ModeReadOnly.AllowsWrites())
	assert.True(t, domain.ModeReadWrite.AllowsWrites())
	assert.True(t, domain.ModeAuto.AllowsWrites())
	assert.True(t, domain.SurfaceAdmin.Valid())
	assert.False(t, domain.Surface("members").Valid())
}
