package storage

import (
	"context"
	"testing"

	infraconfig "github.com/invrecon/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ObjectStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("requires configuration", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("requires a bucket", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, &infraconfig.StorageConfig{})
		assert.Error(t, err)
	})

	t.Run("creates client without touching the network", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, &infraconfig.StorageConfig{
			Provider: "s3",
			Bucket:   "invrecon-artifacts",
			Region:   "us-east-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "invrecon-artifacts", s.GetBucket())
	})
}

func TestS3ObjectStorage_Ref(t *testing.T) {
	ctx := context.Background()

	t.Run("prefixes keys", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, &infraconfig.StorageConfig{
			Bucket:    "invrecon-artifacts",
			KeyPrefix: "invrecon/",
		})
		require.NoError(t, err)

		assert.Equal(t, "s3://invrecon-artifacts/invrecon/runs/r1.json", s.Ref("runs/r1.json"))
	})

	t.Run("works without a prefix", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, &infraconfig.StorageConfig{
			Bucket: "invrecon-artifacts",
		})
		require.NoError(t, err)

		assert.Equal(t, "s3://invrecon-artifacts/runs/r1.json", s.Ref("runs/r1.json"))
	})

	t.Run("empty key is rejected by operations", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, &infraconfig.StorageConfig{
			Bucket: "invrecon-artifacts",
		})
		require.NoError(t, err)

		assert.Error(t, s.Upload(ctx, "", nil, "application/json"))
		_, err = s.Download(ctx, "")
		assert.Error(t, err)
		assert.Error(t, s.DeleteObject(ctx, ""))
	})
}
