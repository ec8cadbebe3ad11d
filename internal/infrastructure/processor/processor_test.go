package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

// gradient returns a deterministic test image with varied colors.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 255) / max(w-1, 1)),
				G: uint8((y * 255) / max(h-1, 1)),
				B: uint8(((x + y) * 37) % 256),
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, err := Decode(bytes.NewReader(encodePNG(t, gradient(8, 6))))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	_, err = Decode(bytes.NewReader([]byte("definitely not an image")))
	assert.ErrorIs(t, err, domain.ErrDecodeFailed)
}

func TestToRGBDropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	rgb := ToRGB(src)

	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, rgb.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, rgb.NRGBAAt(1, 0))
}

func TestImageProcessorEnhanceIdentity(t *testing.T) {
	p := NewImageProcessor(&config.EditingConfig{OutputQuality: 90})
	src := gradient(16, 12)

	out := p.Enhance(src, domain.EnhanceParams{})

	assert.Equal(t, src.Pix, out.Pix)
}

func TestEnhanceNoopParamsThroughPipeline(t *testing.T) {
	src := gradient(16, 12)

	out := Enhance(ToRGB(src), domain.EnhanceParams{})

	assert.Equal(t, src.Pix, out.Pix, "factor 1 must leave every step unchanged")
}

func TestEnhanceClampsOutOfRange(t *testing.T) {
	src := ToRGB(gradient(16, 12))

	over := Enhance(src, domain.NewEnhanceParams(250, -400, 180, 101))
	bounded := Enhance(src, domain.EnhanceParams{Color: 100, Brightness: -100, Contrast: 100, Sharpness: 100})

	assert.Equal(t, bounded.Pix, over.Pix)
}

func TestBrightnessExtremes(t *testing.T) {
	src := ToRGB(gradient(4, 4))

	black := Brightness(src, 0)
	for i := 0; i < len(black.Pix); i += 4 {
		assert.Equal(t, []uint8{0, 0, 0, 255}, black.Pix[i:i+4])
	}

	doubled := Brightness(src, 2)
	px := doubled.NRGBAAt(3, 0)
	assert.Equal(t, uint8(255), px.R, "doubling a saturated channel clips at 255")
}

func TestColorZeroIsGrayscale(t *testing.T) {
	gray := Color(ToRGB(gradient(5, 5)), 0)

	for i := 0; i < len(gray.Pix); i += 4 {
		assert.Equal(t, gray.Pix[i], gray.Pix[i+1])
		assert.Equal(t, gray.Pix[i], gray.Pix[i+2])
	}
}

func TestContrastZeroIsFlatMean(t *testing.T) {
	src := ToRGB(gradient(6, 6))
	mean := meanLuma(src)

	flat := Contrast(src, 0)

	for i := 0; i < len(flat.Pix); i += 4 {
		assert.Equal(t, []uint8{mean, mean, mean, 255}, flat.Pix[i:i+4])
	}
}

func TestSharpnessKeepsBorder(t *testing.T) {
	src := ToRGB(gradient(6, 6))

	out := Sharpness(src, 2)

	assert.Equal(t, src.NRGBAAt(0, 0), out.NRGBAAt(0, 0))
	assert.Equal(t, src.NRGBAAt(5, 3), out.NRGBAAt(5, 3))
	assert.Equal(t, src.NRGBAAt(2, 5), out.NRGBAAt(2, 5))
}

func TestEnhanceIsOrderSensitive(t *testing.T) {
	src := ToRGB(gradient(16, 16))
	params := domain.EnhanceParams{Color: -60, Brightness: 80, Contrast: 70, Sharpness: 0}

	pipeline := Enhance(src, params)

	// contrast before brightness shifts the mean used by Contrast
	swapped := Color(src, domain.ScaleFactor(params.Color))
	swapped = Contrast(swapped, domain.ScaleFactor(params.Contrast))
	swapped = Brightness(swapped, domain.ScaleFactor(params.Brightness))

	assert.NotEqual(t, pipeline.Pix, swapped.Pix)
}

func TestLuma(t *testing.T) {
	assert.Equal(t, uint8(0), luma(0, 0, 0))
	assert.Equal(t, uint8(255), luma(255, 255, 255))
	assert.Equal(t, uint8(76), luma(255, 0, 0))
	assert.Equal(t, uint8(150), luma(0, 255, 0))
	assert.Equal(t, uint8(29), luma(0, 0, 255))
}

func TestEncodeJPEGRoundTrip(t *testing.T) {
	p := NewImageProcessor(&config.EditingConfig{OutputQuality: 95})

	buf, err := p.EncodeJPEG(gradient(20, 10))
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 20, decoded.Bounds().Dx())
	assert.Equal(t, 10, decoded.Bounds().Dy())
}

func TestNewImageProcessorFixesQuality(t *testing.T) {
	cfg := &config.EditingConfig{OutputQuality: 0}
	NewImageProcessor(cfg)
	assert.Equal(t, 95, cfg.OutputQuality)
}
