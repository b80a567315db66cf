package pixmod

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/openpixmod/pixmod/utils"
)

// KeyMode selects the color distance used by the classifier.
type KeyMode int

const (
	// KeyRGB compares colors by euclidean distance in RGB space.
	KeyRGB KeyMode = iota
	// KeyHSV compares colors by per channel hue, saturation and value windows.
	KeyHSV
)

// ParseKeyMode maps "rgb" and "hsv" to their mode. Anything else is RGB.
func ParseKeyMode(s string) KeyMode {
	if strings.EqualFold(strings.TrimSpace(s), "hsv") {
		return KeyHSV
	}
	return KeyRGB
}

func (m KeyMode) String() string {
	if m == KeyHSV {
		return "hsv"
	}
	return "rgb"
}

// MarshalText implements encoding.TextMarshaler.
func (m KeyMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *KeyMode) UnmarshalText(text []byte) error {
	*m = ParseKeyMode(string(text))
	return nil
}

// PaletteEntry is a key color with an enable flag. Only RGB is compared.
type PaletteEntry struct {
	Color   color.NRGBA
	Enabled bool
}

// KeyOptions configures the color key classifier.
type KeyOptions struct {
	Palette   []PaletteEntry
	Mode      KeyMode
	Tolerance int
	HueTol    int
	SatTol    int
	ValTol    int
}

// DefaultKeyOptions returns the classifier defaults with an empty palette.
func DefaultKeyOptions() KeyOptions {
	return KeyOptions{
		Mode:      KeyRGB,
		Tolerance: 30,
		HueTol:    12,
		SatTol:    40,
		ValTol:    40,
	}
}

// EnabledColors returns the colors of the enabled palette entries.
func EnabledColors(palette []PaletteEntry) []color.NRGBA {
	var colors []color.NRGBA
	for _, e := range palette {
		if e.Enabled {
			colors = append(colors, e.Color)
		}
	}
	return colors
}

type hsv struct{ h, s, v float64 }

// toHSV returns hue in [0, 360) and saturation and value in [0, 255].
func toHSV(r, g, b uint8) hsv {
	h, s, v := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}.Hsv()
	if h >= 360 {
		h -= 360
	}
	return hsv{h: h, s: s * 255, v: v * 255}
}

func hueDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 360-d)
}

// Classify marks the pixels of img matching any enabled palette color.
// An empty or fully disabled palette yields an all false mask.
func Classify(img *image.NRGBA, opts KeyOptions) (*Mask, error) {
	src, err := prepare(img, "classify")
	if err != nil {
		return nil, err
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	mask := NewMask(w, h)

	colors := EnabledColors(opts.Palette)
	if len(colors) == 0 {
		return mask, nil
	}

	if opts.Mode == KeyHSV {
		classifyHSV(src, mask, colors, opts)
	} else {
		classifyRGB(src, mask, colors, opts.Tolerance)
	}
	return mask, nil
}

// maxRGBDistance exceeds the distance between any two RGB colors.
const maxRGBDistance = 442

// squaredTolerance clamps tol to [0, maxRGBDistance] and squares it.
func squaredTolerance(tol int) int {
	tol = utils.Clamp(tol, 0, maxRGBDistance)
	return tol * tol
}

func classifyRGB(src *image.NRGBA, mask *Mask, colors []color.NRGBA, tol int) {
	tol2 := squaredTolerance(tol)
	w := mask.Width
	for y := 0; y < mask.Height; y++ {
		row := src.Pix[src.PixOffset(0, y):]
		for x := 0; x < w; x++ {
			r, g, b := int(row[x*4]), int(row[x*4+1]), int(row[x*4+2])
			for _, c := range colors {
				dr, dg, db := r-int(c.R), g-int(c.G), b-int(c.B)
				if dr*dr+dg*dg+db*db <= tol2 {
					mask.Bits[y*w+x] = true
					break
				}
			}
		}
	}
}

func classifyHSV(src *image.NRGBA, mask *Mask, colors []color.NRGBA, opts KeyOptions) {
	var (
		hTol = float64(utils.Clamp(opts.HueTol, 0, 180))
		sTol = float64(utils.Clamp(opts.SatTol, 0, 255))
		vTol = float64(utils.Clamp(opts.ValTol, 0, 255))
	)
	keys := make([]hsv, len(colors))
	for i, c := range colors {
		keys[i] = toHSV(c.R, c.G, c.B)
	}

	w := mask.Width
	for y := 0; y < mask.Height; y++ {
		row := src.Pix[src.PixOffset(0, y):]
		for x := 0; x < w; x++ {
			p := toHSV(row[x*4], row[x*4+1], row[x*4+2])
			for _, k := range keys {
				if hueDistance(p.h, k.h) <= hTol &&
					math.Abs(p.s-k.s) <= sTol &&
					math.Abs(p.v-k.v) <= vTol {
					mask.Bits[y*w+x] = true
					break
				}
			}
		}
	}
}

// ApplyColorKey returns a copy of img with the alpha of every keyed pixel
// set to zero.
func ApplyColorKey(img *image.NRGBA, opts KeyOptions) (*image.NRGBA, error) {
	src, err := prepare(img, "apply color key")
	if err != nil {
		return nil, err
	}
	mask, err := Classify(src, opts)
	if err != nil {
		return nil, err
	}
	dst := clone(src)
	for i, b := range mask.Bits {
		if b {
			dst.Pix[i*4+3] = 0
		}
	}
	return dst, nil
}
