package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage keeps image files in three flat tiers. Paths returned by Save and
// accepted by Delete are relative to the storage root ("<tier dir>/<name>").
type Storage interface {
	Exists(ctx context.Context, tier domain.Tier, name string) (bool, error)
	Open(ctx context.Context, tier domain.Tier, name string) (io.ReadCloser, error)
	Save(ctx context.Context, tier domain.Tier, name string, reader io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, tier domain.Tier) ([]string, error)
	Path(tier domain.Tier, name string) string
}

func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "local":
		zlog.Logger.Info().Msg("Initializing local storage")
		return NewLocalStorage(cfg)
	case "s3":
		zlog.Logger.Info().Msg("Initializing S3 storage")
		return NewS3Storage(cfg)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported storage type, use 'local' or 's3'")
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func tierDirs(cfg *config.StorageConfig) map[domain.Tier]string {
	if cfg.CanonicalDir == "" {
		cfg.CanonicalDir = "imagenet_subset"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.EditedDir == "" {
		cfg.EditedDir = "edited"
	}
	return map[domain.Tier]string{
		domain.TierCanonical: cfg.CanonicalDir,
		domain.TierUploaded:  cfg.UploadDir,
		domain.TierEdited:    cfg.EditedDir,
	}
}
