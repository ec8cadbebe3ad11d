package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type ImageProcessor struct {
	cfg *config.EditingConfig
}

func NewImageProcessor(cfg *config.EditingConfig) *ImageProcessor {
	if cfg.OutputQuality <= 0 || cfg.OutputQuality > 100 {
		zlog.Logger.Warn().
			Int("output_quality", cfg.OutputQuality).
			Msg("Invalid output quality, using default")
		cfg.OutputQuality = 95
	}
	zlog.Logger.Info().
		Int("output_quality", cfg.OutputQuality).
		Msg("ImageProcessor initialized")
	return &ImageProcessor{cfg: cfg}
}

// Decode reads an image without applying EXIF orientation.
func (p *ImageProcessor) Decode(r io.Reader) (image.Image, error) {
	return Decode(r)
}

func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: decoded image is empty", domain.ErrDecodeFailed)
	}
	return img, nil
}

// Enhance normalizes img to RGB and applies the four adjustments in order.
func (p *ImageProcessor) Enhance(img image.Image, params domain.EnhanceParams) *image.NRGBA {
	rgb := ToRGB(img)
	if params.IsIdentity() {
		return rgb
	}
	out := Enhance(rgb, params)
	zlog.Logger.Debug().
		Str("params", params.String()).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Msg("image enhanced")
	return out
}

// EncodeJPEG encodes img with the configured output quality.
func (p *ImageProcessor) EncodeJPEG(img image.Image) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.cfg.OutputQuality)); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to encode image")
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("empty buffer after encoding")
	}
	return &buf, nil
}

// ToRGB returns an opaque NRGBA copy of img. Alpha is dropped, not composited.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func GetImageDimensions(img image.Image) (width, height int) {
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}
