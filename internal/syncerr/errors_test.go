package syncerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	tests := []struct {
		sentinel error
		name     string
		kind     Kind
	}{
		{name: "not configured", kind: KindNotConfigured, sentinel: ErrNotConfigured},
		{name: "connection failed", kind: KindConnectionFailed, sentinel: ErrConnectionFailed},
		{name: "authentication failed", kind: KindAuthenticationFailed, sentinel: ErrAuthenticationFailed},
		{name: "server error", kind: KindServerError, sentinel: ErrServerError},
		{name: "conflict", kind: KindConflict, sentinel: ErrConflict},
		{name: "queue full", kind: KindQueueFull, sentinel: ErrQueueFull},
		{name: "network", kind: KindNetwork, sentinel: ErrNetwork},
		{name: "invalid data", kind: KindInvalidData, sentinel: ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", New(tt.kind, "push", errors.New("boom")))

			assert.ErrorIs(t, err, tt.sentinel)

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestError_Message(t *testing.T) {
	err := New(KindServerError, "push", errors.New("status 500"))
	assert.Equal(t, "push: server error: status 500", err.Error())

	bare := New(KindQueueFull, "", nil)
	assert.Equal(t, "queue is full", bare.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := New(KindConnectionFailed, "pull", cause)

	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrServerError)
}

func TestKindOf(t *testing.T) {
	_, ok := KindOf(nil)
	assert.False(t, ok)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)

	kind, ok := KindOf(fmt.Errorf("x: %w", ErrInvalidData))
	require.True(t, ok)
	assert.Equal(t, KindInvalidData, kind)

	kind, ok = KindOf(context.DeadlineExceeded)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindNetwork, "push", nil)))
	assert.True(t, IsRetryable(New(KindConnectionFailed, "push", nil)))
	assert.True(t, IsRetryable(New(KindServerError, "push", nil)))
	assert.False(t, IsRetryable(New(KindAuthenticationFailed, "push", nil)))
	assert.False(t, IsRetryable(ErrQueueFull))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("push", nil, KindConnectionFailed))

	err := Classify("push", context.DeadlineExceeded, KindConnectionFailed)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = Classify("push", errors.New("reset by peer"), KindConnectionFailed)
	assert.ErrorIs(t, err, ErrConnectionFailed)

	original := New(KindAuthenticationFailed, "authenticate", nil)
	assert.Same(t, original, Classify("push", original, KindConnectionFailed))

	err = Classify("enqueue", ErrQueueFull, KindInvalidData)
	assert.Equal(t, "enqueue: queue is full", err.Error())
}
