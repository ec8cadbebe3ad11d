package usecase

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/processor"
)

type UploadUsecase struct {
	store *ImageStore
}

func NewUploadUsecase(store *ImageStore) *UploadUsecase {
	return &UploadUsecase{store: store}
}

// Upload checks that data decodes as an image and stores it in the upload
// tier, returning the identifier it was stored under.
func (u *UploadUsecase) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if _, err := processor.Decode(bytes.NewReader(data)); err != nil {
		zlog.Logger.Warn().Err(err).Str("filename", filename).Msg("rejected upload")
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}

	name, err := u.store.Store(ctx, data, filename, domain.TierUploaded)
	if err != nil {
		return "", err
	}

	zlog.Logger.Info().Str("filename", filename).Str("image_id", name).Int("bytes", len(data)).Msg("image uploaded")
	return name, nil
}
