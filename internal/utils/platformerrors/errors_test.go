package platformerrors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsError_KeepsWrappedType(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")
	inner := NewError(ctx, LayerDomain, ErrorTypeValidation, "importance 11 out of range 1-10", nil, "")

	wrapped := AsError(ctx, LayerDomain, inner, "save_memory")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeValidation, wrapped.Type)
	assert.Equal(t, inner.UUID, wrapped.UUID)
	assert.Equal(t, "req-7", wrapped.RequestID)
	assert.Contains(t, wrapped.Message, "save_memory: importance 11")
	assert.True(t, IsErrorType(wrapped, ErrorTypeValidation))
	assert.ErrorIs(t, wrapped, inner)
}

func TestAsError_PlainErrorIsInternal(t *testing.T) {
	cause := errors.New("disk full")

	wrapped := AsError(context.Background(), LayerRepository, cause, "write memory")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, AsError(context.Background(), LayerRepository, nil, "noop"))
}
