package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/processor"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/storage"
)

var _ domain.ImageResolver = (*ImageResolver)(nil)

// ImageResolver finds an image identifier in the storage tiers, checking
// edited, uploaded and canonical in that order.
type ImageResolver struct {
	storage storage.Storage
}

func NewImageResolver(storage storage.Storage) *ImageResolver {
	return &ImageResolver{storage: storage}
}

func (r *ImageResolver) Locate(ctx context.Context, imageID string) (domain.Tier, error) {
	name, err := storage.CleanName(imageID)
	if err != nil || name != imageID {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidImageID, imageID)
	}

	for _, tier := range domain.ResolutionOrder {
		exists, err := r.storage.Exists(ctx, tier, imageID)
		if err != nil {
			zlog.Logger.Error().Err(err).Str("image_id", imageID).Str("tier", string(tier)).Msg("failed to check tier")
			return "", fmt.Errorf("check %s tier: %w", tier, err)
		}
		if exists {
			return tier, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID)
}

func (r *ImageResolver) Open(ctx context.Context, imageID string) (io.ReadCloser, domain.Tier, error) {
	tier, err := r.Locate(ctx, imageID)
	if err != nil {
		return nil, "", err
	}
	rc, err := r.storage.Open(ctx, tier, imageID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// removed between the existence check and the open
			return nil, "", fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID)
		}
		return nil, "", fmt.Errorf("open %s: %w", imageID, err)
	}
	return rc, tier, nil
}

func (r *ImageResolver) Resolve(ctx context.Context, imageID string) (image.Image, error) {
	rc, tier, err := r.Open(ctx, imageID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := processor.Decode(rc)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Str("tier", string(tier)).Msg("failed to decode image")
		return nil, fmt.Errorf("decode %s: %w", imageID, err)
	}

	zlog.Logger.Debug().
		Str("image_id", imageID).
		Str("tier", string(tier)).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("image resolved")
	return img, nil
}
