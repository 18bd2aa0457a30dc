package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	plain := NotFound("account not found")
	assert.Equal(t, "account not found", plain.Error())

	cause := errors.New("redis: connection refused")
	wrapped := Wrap(cause, ErrCodeInternal, "load account")
	assert.Equal(t, "load account: redis: connection refused", wrapped.Error())
	assert.Equal(t, cause, wrapped.Unwrap())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
	}{
		{NotFoundf("account %q", "microsoft:u1"), IsNotFound},
		{Validation("one identity required"), IsValidation},
		{Unauthorized("provider not signed in"), IsUnauthorized},
		{Internal("boom"), IsInternal},
	}

	for _, tt := range tests {
		assert.True(t, tt.pred(tt.err))
		// Predicates see through wrapping.
		assert.True(t, tt.pred(fmt.Errorf("outer: %w", tt.err)))
	}

	assert.False(t, IsNotFound(Validation("nope")))
	assert.False(t, IsNotFound(nil))
}

func TestWrap_NilCause(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestMapDBError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	assert.True(t, IsTimeout(MapDBError(context.DeadlineExceeded)))
	assert.True(t, IsCanceled(MapDBError(context.Canceled)))
	assert.True(t, IsNotFound(MapDBError(pgx.ErrNoRows)))

	// Unrecognized errors pass through unchanged.
	plain := errors.New("some other failure")
	require.Equal(t, plain, MapDBError(plain))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeUnauthorized, GetCode(Unauthorized("x")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
}
