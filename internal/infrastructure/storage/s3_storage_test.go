package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func minioConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:          "crm-media",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		PresignExpiry:   15 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := minioConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half of the credentials", func(t *testing.T) {
		cfg := minioConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config", func(t *testing.T) {
		s, err := NewS3ObjectStorage(minioConfig())
		require.NoError(t, err)
		assert.Equal(t, "crm-media", s.Bucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})

	t.Run("endpoint without scheme", func(t *testing.T) {
		cfg := minioConfig()
		cfg.Endpoint = "minio.internal:9000"
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		require.NotNil(t, s)
	})

	t.Run("default presign expiry", func(t *testing.T) {
		cfg := minioConfig()
		cfg.PresignExpiry = 0
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})
}

func TestS3ObjectStorageOptions(t *testing.T) {
	t.Run("WithLogger", func(t *testing.T) {
		logger := zaptest.NewLogger(t)
		s, err := NewS3ObjectStorage(minioConfig(), WithLogger(logger))
		require.NoError(t, err)
		assert.Same(t, logger, s.logger)
	})

	t.Run("WithPresignExpiration", func(t *testing.T) {
		s, err := NewS3ObjectStorage(minioConfig(), WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(minioConfig())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("empty key", func(t *testing.T) {
		u, _, err := s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.ErrorIs(t, err, errKeyRequired)
		assert.Empty(t, u)
	})

	t.Run("presigned path-style URL", func(t *testing.T) {
		key := "crm/tenant/owner/abc.png"
		u, expiresAt, err := s.GenerateDownloadURL(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "http://localhost:9000/crm-media/"))
		assert.Contains(t, u, "abc.png")
		assert.Contains(t, u, "X-Amz-Signature=")
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
	})

	t.Run("default expiry", func(t *testing.T) {
		_, expiresAt, err := s.GenerateDownloadURL(ctx, "k.png", 0)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
	})
}

func TestS3ObjectStorage_EmptyKeys(t *testing.T) {
	s, err := NewS3ObjectStorage(minioConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, s.Upload(ctx, "", []byte("x"), "text/plain"), errKeyRequired)
	assert.ErrorIs(t, s.DeleteObject(ctx, ""), errKeyRequired)
	exists, err := s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, errKeyRequired)
	assert.False(t, exists)
}

// TestS3ObjectStorage_RoundTrip runs against a live S3-compatible server
// when STORAGE_TEST_ENDPOINT is set (e.g. a local MinIO).
func TestS3ObjectStorage_RoundTrip(t *testing.T) {
	endpoint := os.Getenv("STORAGE_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("STORAGE_TEST_ENDPOINT not set")
	}

	cfg := minioConfig()
	cfg.Endpoint = endpoint
	cfg.Bucket = "crm-storage-test"
	cfg.AccessKeyID = os.Getenv("STORAGE_TEST_ACCESS_KEY")
	cfg.SecretAccessKey = os.Getenv("STORAGE_TEST_SECRET_KEY")

	s, err := NewS3ObjectStorage(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.EnsureBucket(ctx))

	key := "crm/test/avatar.txt"
	require.NoError(t, s.Upload(ctx, key, []byte("avatar"), "text/plain"))

	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteObject(ctx, key))
	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
