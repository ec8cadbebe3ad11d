package usecase

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/processor"
)

var _ domain.ImageEnhancer = (*ImageEnhancer)(nil)

type ImageEnhancer struct {
	processor *processor.ImageProcessor
	store     *ImageStore
}

func NewImageEnhancer(processor *processor.ImageProcessor, store *ImageStore) *ImageEnhancer {
	return &ImageEnhancer{
		processor: processor,
		store:     store,
	}
}

// Enhance applies params to img and persists the JPEG result in the edited
// tier under a fresh name, which it returns.
func (e *ImageEnhancer) Enhance(ctx context.Context, img image.Image, params domain.EnhanceParams) (string, error) {
	return e.enhanceAs(ctx, img, params, "image")
}

func (e *ImageEnhancer) enhanceAs(ctx context.Context, img image.Image, params domain.EnhanceParams, stem string) (string, error) {
	params = domain.NewEnhanceParams(params.Color, params.Brightness, params.Contrast, params.Sharpness)
	edited := e.processor.Enhance(img, params)

	buf, err := e.processor.EncodeJPEG(edited)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_edited_%s.jpg", stem, uuid.New().String()[:8])
	name, err := e.store.Store(ctx, buf.Bytes(), filename, domain.TierEdited)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", filename).Msg("failed to store edited image")
		return "", fmt.Errorf("store edited image: %w", err)
	}

	zlog.Logger.Info().
		Str("edited_id", name).
		Str("params", params.String()).
		Int("bytes", buf.Len()).
		Msg("edited image stored")
	return name, nil
}

// EditUsecase resolves a source image, enhances it and schedules the edited
// copy for removal after ttl.
type EditUsecase struct {
	resolver *ImageResolver
	enhancer *ImageEnhancer
	store    *ImageStore
	ttl      time.Duration
}

func NewEditUsecase(resolver *ImageResolver, enhancer *ImageEnhancer, store *ImageStore, ttl time.Duration) *EditUsecase {
	return &EditUsecase{
		resolver: resolver,
		enhancer: enhancer,
		store:    store,
		ttl:      ttl,
	}
}

func (u *EditUsecase) EditImage(ctx context.Context, imageID string, params domain.EnhanceParams) (string, error) {
	img, err := u.resolver.Resolve(ctx, imageID)
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(imageID, filepath.Ext(imageID))
	name, err := u.enhancer.enhanceAs(ctx, img, params, stem)
	if err != nil {
		return "", err
	}

	u.store.ScheduleRemoval(u.store.PathOf(domain.TierEdited, name), u.ttl)
	return name, nil
}
