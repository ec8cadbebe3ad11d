package domain

import "fmt"

// Tier is a storage tier an image identifier can be resolved against.
type Tier string

const (
	TierEdited    Tier = "edited"
	TierUploaded  Tier = "uploaded"
	TierCanonical Tier = "canonical"
)

// ResolutionOrder is the fixed precedence used when looking an image up.
var ResolutionOrder = []Tier{TierEdited, TierUploaded, TierCanonical}

func (t Tier) Valid() bool {
	switch t {
	case TierEdited, TierUploaded, TierCanonical:
		return true
	}
	return false
}

const (
	MinAdjustment = -100
	MaxAdjustment = 100
)

// EnhanceParams holds the four percentage-style adjustments applied by the editor.
// Values are clamped to [MinAdjustment, MaxAdjustment] by NewEnhanceParams.
type EnhanceParams struct {
	Color      int
	Brightness int
	Contrast   int
	Sharpness  int
}

func NewEnhanceParams(color, brightness, contrast, sharpness int) EnhanceParams {
	return EnhanceParams{
		Color:      ClampAdjustment(color),
		Brightness: ClampAdjustment(brightness),
		Contrast:   ClampAdjustment(contrast),
		Sharpness:  ClampAdjustment(sharpness),
	}
}

func (p EnhanceParams) IsIdentity() bool {
	return p.Color == 0 && p.Brightness == 0 && p.Contrast == 0 && p.Sharpness == 0
}

func (p EnhanceParams) String() string {
	return fmt.Sprintf("color=%d brightness=%d contrast=%d sharpness=%d",
		p.Color, p.Brightness, p.Contrast, p.Sharpness)
}

func ClampAdjustment(v int) int {
	if v < MinAdjustment {
		return MinAdjustment
	}
	if v > MaxAdjustment {
		return MaxAdjustment
	}
	return v
}

// ScaleFactor maps an adjustment in [-100, 100] to an enhancement factor in [0, 2].
func ScaleFactor(v int) float64 {
	return float64(ClampAdjustment(v)+100) / 100
}
