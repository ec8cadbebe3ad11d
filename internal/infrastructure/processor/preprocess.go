package processor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	ResizeShortEdge = 256
	CropSize        = 224
	Channels        = 3
)

var (
	imagenetMean = [Channels]float32{0.485, 0.456, 0.406}
	imagenetStd  = [Channels]float32{0.229, 0.224, 0.225}
)

// Preprocess converts img into the 1x3x224x224 CHW tensor ImageNet models
// expect: RGB, shorter edge resized to 256, center crop, mean/std normalized.
func Preprocess(img image.Image) []float32 {
	rgb := ToRGB(img)
	resized := ResizeShorter(rgb, ResizeShortEdge)
	cropped := CenterCrop(resized, CropSize, CropSize)
	return ToTensor(cropped)
}

// ResizeShorter scales img so that its shorter edge equals size. The longer
// edge is truncated, not rounded.
func ResizeShorter(img image.Image, size int) *image.NRGBA {
	w, h := GetImageDimensions(img)
	if w <= h {
		if w == size {
			return imaging.Clone(img)
		}
		return imaging.Resize(img, size, int(float64(size)*float64(h)/float64(w)), imaging.Linear)
	}
	if h == size {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, int(float64(size)*float64(w)/float64(h)), size, imaging.Linear)
}

// CenterCrop cuts a width x height window from the middle of img, rounding
// half offsets to even.
func CenterCrop(img image.Image, width, height int) *image.NRGBA {
	w, h := GetImageDimensions(img)
	left := int(math.RoundToEven(float64(w-width) / 2))
	top := int(math.RoundToEven(float64(h-height) / 2))
	origin := img.Bounds().Min
	return imaging.Crop(img, image.Rect(origin.X+left, origin.Y+top, origin.X+left+width, origin.Y+top+height))
}

// ToTensor lays img out as planar R, G, B float32 channels normalized with
// the ImageNet mean and standard deviation.
func ToTensor(img *image.NRGBA) []float32 {
	w, h := GetImageDimensions(img)
	plane := w * h
	out := make([]float32, Channels*plane)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			for c := 0; c < Channels; c++ {
				v := float32(row[x*4+c]) / 255
				out[c*plane+i] = (v - imagenetMean[c]) / imagenetStd[c]
			}
		}
	}
	return out
}
