package storage

import (
	"context"
	"fmt"

	"github.com/likekeeper/likekeeper/pkg/config"
)

// BlobStore persists screenshot image bytes under opaque keys. The key for
// a screenshot is derived from its owning post id.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New creates a blob store for the configured backend
func New(cfg *config.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// ScreenshotKey derives the blob key for a post's screenshot
func ScreenshotKey(postID, format string) string {
	return fmt.Sprintf("%s.%s", postID, format)
}
