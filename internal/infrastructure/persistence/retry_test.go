package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Keep backoff waits out of the test runtime
	baseRetryDelay = time.Millisecond
}

func pqError(code string) error {
	return &pq.Error{Code: pq.ErrorCode(code)}
}

func TestIsTransient(t *testing.T) {
	t.Run("serialization failure is transient", func(t *testing.T) {
		assert.True(t, IsTransient(pqError("40001")))
	})

	t.Run("deadlock is transient", func(t *testing.T) {
		assert.True(t, IsTransient(pqError("40P01")))
	})

	t.Run("lock timeout is transient", func(t *testing.T) {
		assert.True(t, IsTransient(pqError("55P03")))
	})

	t.Run("unique violation is not transient", func(t *testing.T) {
		assert.False(t, IsTransient(pqError("23505")))
	})

	t.Run("plain error is not transient", func(t *testing.T) {
		assert.False(t, IsTransient(errors.New("connection refused")))
	})

	t.Run("wrapped pq error is detected", func(t *testing.T) {
		wrapped := errors.Join(errors.New("save run"), pqError("40P01"))
		assert.True(t, IsTransient(wrapped))
	})
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient error until success", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return pqError("40001")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return pqError("40P01")
		})
		require.Error(t, err)
		assert.True(t, IsTransient(err))
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error fails immediately", func(t *testing.T) {
		calls := 0
		permanent := errors.New("relation does not exist")
		err := WithRetry(ctx, func() error {
			calls++
			return permanent
		})
		require.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := WithRetry(cancelled, func() error {
			calls++
			return pqError("40001")
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
