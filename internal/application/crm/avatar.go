package crm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// ObjectStorage defines the object store holding avatar images
type ObjectStorage interface {
	// Upload stores data under key
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// GenerateDownloadURL returns a presigned URL valid for expiresIn
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, key string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// AllowedAvatarTypes maps accepted image content types to the stored file extension.
// SVG is not accepted since it can carry scripts.
var AllowedAvatarTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// AvatarConfig holds avatar upload settings
type AvatarConfig struct {
	MaxSize   int64
	URLExpiry time.Duration
}

// DefaultAvatarConfig returns the default avatar settings
func DefaultAvatarConfig() AvatarConfig {
	return AvatarConfig{
		MaxSize:   2 << 20,
		URLExpiry: 15 * time.Minute,
	}
}

// AvatarUpload is an uploaded image
type AvatarUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AvatarStore stores avatars of sales people and customers
type AvatarStore struct {
	storage ObjectStorage
	config  AvatarConfig
	logger  *zap.Logger
}

// NewAvatarStore creates an avatar store
func NewAvatarStore(storage ObjectStorage, config AvatarConfig, logger *zap.Logger) *AvatarStore {
	defaults := DefaultAvatarConfig()
	if config.MaxSize <= 0 {
		config.MaxSize = defaults.MaxSize
	}
	if config.URLExpiry <= 0 {
		config.URLExpiry = defaults.URLExpiry
	}
	return &AvatarStore{storage: storage, config: config, logger: logger}
}

// Put validates the image and stores it under crm/<tenant>/<owner>/<nanoid>.<ext>
func (a *AvatarStore) Put(ctx context.Context, tenantID, ownerID uuid.UUID, upload AvatarUpload) (string, error) {
	if len(upload.Data) == 0 {
		return "", shared.NewFieldError("INVALID_AVATAR", "avatar", "File is empty")
	}
	if int64(len(upload.Data)) > a.config.MaxSize {
		return "", shared.NewFieldError("FILE_TOO_LARGE", "avatar",
			fmt.Sprintf("File size exceeds the maximum of %d bytes", a.config.MaxSize))
	}

	// The declared type must agree with the sniffed one
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(upload.ContentType, ";")[0]))
	sniffed := http.DetectContentType(upload.Data)
	ext, ok := AllowedAvatarTypes[sniffed]
	if !ok || (contentType != "" && contentType != sniffed) {
		return "", shared.NewFieldError("INVALID_AVATAR", "avatar", "Only JPEG, PNG, GIF or WebP images are allowed")
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("crm/%s/%s/%s.%s", tenantID, ownerID, id, ext)
	if err := a.storage.Upload(ctx, key, upload.Data, sniffed); err != nil {
		a.logger.Error("Failed to upload avatar",
			zap.String("key", key),
			zap.Error(err))
		return "", err
	}
	return key, nil
}

// URL returns a download URL for key, or "" when there is no avatar or signing fails
func (a *AvatarStore) URL(ctx context.Context, key string) string {
	if a == nil || key == "" {
		return ""
	}
	url, _, err := a.storage.GenerateDownloadURL(ctx, key, a.config.URLExpiry)
	if err != nil {
		a.logger.Warn("Failed to sign avatar URL", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

// Remove deletes an avatar object. Failures only leave an orphaned object behind.
func (a *AvatarStore) Remove(ctx context.Context, key string) {
	if a == nil || key == "" {
		return
	}
	if err := a.storage.DeleteObject(ctx, key); err != nil {
		a.logger.Warn("Failed to delete avatar", zap.String("key", key), zap.Error(err))
	}
}
