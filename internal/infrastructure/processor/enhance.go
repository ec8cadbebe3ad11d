package processor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

// Each enhancer interpolates between a degenerate image and the input:
// out = degenerate + factor*(input - degenerate). Factor 0 yields the
// degenerate image, 1 the input unchanged, 2 doubles the difference.

// Enhance applies Color, Brightness, Contrast and Sharpness in that order,
// each on the output of the previous step. img must already be RGB.
func Enhance(img *image.NRGBA, params domain.EnhanceParams) *image.NRGBA {
	out := Color(img, domain.ScaleFactor(params.Color))
	out = Brightness(out, domain.ScaleFactor(params.Brightness))
	out = Contrast(out, domain.ScaleFactor(params.Contrast))
	out = Sharpness(out, domain.ScaleFactor(params.Sharpness))
	return out
}

// Color blends with the grayscale version of the image.
func Color(img *image.NRGBA, factor float64) *image.NRGBA {
	f := float32(factor)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luma(c.R, c.G, c.B)
		return color.NRGBA{
			R: blendChannel(l, c.R, f),
			G: blendChannel(l, c.G, f),
			B: blendChannel(l, c.B, f),
			A: c.A,
		}
	})
}

// Brightness blends with black.
func Brightness(img *image.NRGBA, factor float64) *image.NRGBA {
	f := float32(factor)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blendChannel(0, c.R, f),
			G: blendChannel(0, c.G, f),
			B: blendChannel(0, c.B, f),
			A: c.A,
		}
	})
}

// Contrast blends with a flat gray at the image's mean luminance.
func Contrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := meanLuma(img)
	f := float32(factor)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blendChannel(mean, c.R, f),
			G: blendChannel(mean, c.G, f),
			B: blendChannel(mean, c.B, f),
			A: c.A,
		}
	})
}

var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// Sharpness blends with a smoothed copy of the image. Border pixels of the
// smoothed copy are taken from the input unchanged.
func Sharpness(img *image.NRGBA, factor float64) *image.NRGBA {
	smooth := imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
	copyBorder(smooth, img)
	return blendImages(smooth, img, float32(factor))
}

// luma is the ITU-R 601-2 transform with the rounding used by common imaging
// libraries for RGB to L conversion.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

func meanLuma(img *image.NRGBA) uint8 {
	w, h := GetImageDimensions(img)
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(luma(row[x], row[x+1], row[x+2]))
		}
	}
	return uint8(float64(sum)/float64(w*h) + 0.5)
}

func blendChannel(degenerate, v uint8, f float32) uint8 {
	t := float32(degenerate) + f*(float32(v)-float32(degenerate))
	switch {
	case t <= 0:
		return 0
	case t >= 255:
		return 255
	default:
		return uint8(t)
	}
}

func blendImages(degenerate, img *image.NRGBA, f float32) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	w, h := GetImageDimensions(img)
	for y := 0; y < h; y++ {
		di := degenerate.Pix[y*degenerate.Stride:]
		si := img.Pix[y*img.Stride:]
		oi := out.Pix[y*out.Stride:]
		for x := 0; x < w*4; x += 4 {
			oi[x] = blendChannel(di[x], si[x], f)
			oi[x+1] = blendChannel(di[x+1], si[x+1], f)
			oi[x+2] = blendChannel(di[x+2], si[x+2], f)
			oi[x+3] = si[x+3]
		}
	}
	return out
}

func copyBorder(dst, src *image.NRGBA) {
	w, h := GetImageDimensions(src)
	copyPixel := func(x, y int) {
		d := y*dst.Stride + x*4
		s := y*src.Stride + x*4
		copy(dst.Pix[d:d+4], src.Pix[s:s+4])
	}
	for x := 0; x < w; x++ {
		copyPixel(x, 0)
		copyPixel(x, h-1)
	}
	for y := 0; y < h; y++ {
		copyPixel(0, y)
		copyPixel(w-1, y)
	}
}
