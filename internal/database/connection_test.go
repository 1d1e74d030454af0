package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryer_SucceedsAfterFailures(t *testing.T) {
	r := &ExponentialBackoffRetryer{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: 5 * time.Millisecond, multiplier: 2}

	calls := 0
	err := r.Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryer_GivesUp(t *testing.T) {
	r := &ExponentialBackoffRetryer{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond, multiplier: 1}
	sentinel := errors.New("still down")

	calls := 0
	err := r.Retry(context.Background(), func() error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestRetryer_StopsOnCancelledContext(t *testing.T) {
	r := NewExponentialBackoffRetryer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Retry(ctx, func() error {
		t.Fatal("fn must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryer_DelayIsCapped(t *testing.T) {
	r := &ExponentialBackoffRetryer{baseDelay: 100 * time.Millisecond, maxDelay: time.Second, multiplier: 2, jitter: true}

	for attempt := 0; attempt < 10; attempt++ {
		d := r.calculateDelay(attempt)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	}
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.False(t, isConnectionError(errors.New("parse error near SELECT")))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.True(t, isConnectionError(io.ErrUnexpectedEOF))
	assert.True(t, isConnectionError(context.DeadlineExceeded))
}

func TestRedactDBURL(t *testing.T) {
	assert.Equal(t, "ws://root:xxxxx@localhost:8000/rpc", redactDBURL("ws://root:secret@localhost:8000/rpc"))
	assert.Equal(t, "ws://localhost:8000/rpc", redactDBURL("ws://localhost:8000/rpc"))
	assert.Equal(t, "invalid-url", redactDBURL("://bad"))
}

func TestWithConnection_NotConnected(t *testing.T) {
	conn := NewConnection(nil)

	err := conn.WithConnection(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, conn.IsHealthy())
	assert.NoError(t, conn.Close(context.Background()))
	assert.NoError(t, conn.Close(context.Background()), "close is idempotent")
}
