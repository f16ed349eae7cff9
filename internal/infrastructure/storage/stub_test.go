package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips an object", func(t *testing.T) {
		s := NewStubObjectStorage()

		err := s.Upload(ctx, "runs/RC-20260830-0001.json", []byte(`{"items_checked":2}`), "application/json")
		require.NoError(t, err)

		exists, err := s.ObjectExists(ctx, "runs/RC-20260830-0001.json")
		require.NoError(t, err)
		assert.True(t, exists)

		data, err := s.Download(ctx, "runs/RC-20260830-0001.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"items_checked":2}`, string(data))
	})

	t.Run("download of missing key fails", func(t *testing.T) {
		s := NewStubObjectStorage()

		_, err := s.Download(ctx, "missing.csv")
		assert.Error(t, err)
	})

	t.Run("delete removes the object", func(t *testing.T) {
		s := NewStubObjectStorage()

		require.NoError(t, s.Upload(ctx, "a.txt", []byte("x"), "text/plain"))
		require.NoError(t, s.DeleteObject(ctx, "a.txt"))

		exists, err := s.ObjectExists(ctx, "a.txt")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		s := NewStubObjectStorage()

		assert.Error(t, s.Upload(ctx, "", []byte("x"), "text/plain"))
		_, err := s.Download(ctx, "")
		assert.Error(t, err)
		_, err = s.ObjectExists(ctx, "")
		assert.Error(t, err)
		assert.Error(t, s.DeleteObject(ctx, ""))
	})

	t.Run("ref uses the stub scheme", func(t *testing.T) {
		s := NewStubObjectStorage()
		assert.Equal(t, "stub://runs/r1.csv", s.Ref("runs/r1.csv"))
	})
}
