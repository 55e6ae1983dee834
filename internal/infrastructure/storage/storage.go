package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/decdec420/jessica-your-companion/internal/config"
	"github.com/decdec420/jessica-your-companion/internal/domain/image"
)

// New returns the media storage selected by MEDIA_STORAGE, or nil for none.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (image.Storage, error) {
	switch cfg.MediaStorage {
	case "", "none":
		return nil, nil
	case "local":
		return NewLocalStorage(cfg, log)
	case "s3":
		return NewS3Storage(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported media storage %q", cfg.MediaStorage)
	}
}
