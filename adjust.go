package pixmod

import (
	"image"
	"math"

	"github.com/openpixmod/pixmod/utils"
)

// Adjustments holds the tonal correction parameters of a layer.
type Adjustments struct {
	Brightness  float64
	Contrast    float64
	Saturation  float64
	Gamma       float64
	Vibrance    float64
	Temperature int
}

// DefaultAdjustments returns the neutral adjustment set.
func DefaultAdjustments() Adjustments {
	return Adjustments{
		Brightness: 1,
		Contrast:   1,
		Saturation: 1,
		Gamma:      1,
		Vibrance:   1,
	}
}

// Clamped returns a copy with every parameter forced into its valid range.
func (a Adjustments) Clamped() Adjustments {
	a.Brightness = math.Max(0.1, a.Brightness)
	a.Contrast = math.Max(0.1, a.Contrast)
	a.Gamma = math.Max(0.1, a.Gamma)
	a.Saturation = math.Max(0, a.Saturation)
	a.Vibrance = math.Max(0, a.Vibrance)
	a.Temperature = utils.Clamp(a.Temperature, -100, 100)
	return a
}

// IsNeutral reports whether applying a would leave every pixel unchanged.
func (a Adjustments) IsNeutral() bool {
	a = a.Clamped()
	return a.Brightness == 1 && a.Contrast == 1 && a.Saturation == 1 &&
		a.Gamma == 1 && math.Abs(a.Vibrance-1) <= 1e-6 && a.Temperature == 0
}

// Adjust applies brightness, contrast, saturation, vibrance, temperature
// and gamma, in this order, to the color channels of img. Alpha is copied
// unchanged and the input is never modified.
func Adjust(img *image.NRGBA, a Adjustments) (*image.NRGBA, error) {
	src, err := prepare(img, "adjust")
	if err != nil {
		return nil, err
	}
	dst := clone(src)

	a = a.Clamped()
	if a.IsNeutral() {
		return dst, nil
	}

	var (
		doVibrance = math.Abs(a.Vibrance-1) > 1e-6
		shift      = float64(a.Temperature) * 1.25
		invGamma   = 1 / a.Gamma
	)

	for i := 0; i < len(dst.Pix); i += 4 {
		r := float64(dst.Pix[i+0])
		g := float64(dst.Pix[i+1])
		b := float64(dst.Pix[i+2])

		if a.Brightness != 1 {
			r *= a.Brightness
			g *= a.Brightness
			b *= a.Brightness
		}
		if a.Contrast != 1 {
			r = (r-127.5)*a.Contrast + 127.5
			g = (g-127.5)*a.Contrast + 127.5
			b = (b-127.5)*a.Contrast + 127.5
		}

		luma := 0.299*r + 0.587*g + 0.114*b
		if a.Saturation != 1 {
			r = luma + (r-luma)*a.Saturation
			g = luma + (g-luma)*a.Saturation
			b = luma + (b-luma)*a.Saturation
		}
		if doVibrance {
			maxc := math.Max(r, math.Max(g, b))
			minc := math.Min(r, math.Min(g, b))
			sat := utils.Clamp((maxc-minc)/255, 0, 1)
			if k := 1 + (a.Vibrance-1)*(1-sat); k != 1 {
				r = luma + (r-luma)*k
				g = luma + (g-luma)*k
				b = luma + (b-luma)*k
			}
		}
		if a.Temperature != 0 {
			r += shift
			b -= shift
		}
		if a.Gamma != 1 {
			r = math.Pow(utils.Clamp(r, 0, 255)/255, invGamma) * 255
			g = math.Pow(utils.Clamp(g, 0, 255)/255, invGamma) * 255
			b = math.Pow(utils.Clamp(b, 0, 255)/255, invGamma) * 255
		}

		dst.Pix[i+0] = utils.ClampByte(r)
		dst.Pix[i+1] = utils.ClampByte(g)
		dst.Pix[i+2] = utils.ClampByte(b)
	}
	return dst, nil
}
