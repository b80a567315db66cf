// Package imop implements the blend modes and the alpha composition used
// for stacking processed layers onto the output canvas.
//
// Every layer is mixed with its backdrop using source-over composition on
// premultiplied values. The blend mode only decides which color the source
// contributes before the alpha weighting is applied.
package imop

import (
	"strings"
)

// BlendMode selects the color mixing function of a layer.
type BlendMode int

// The supported blend modes. Any other value behaves like Normal.
const (
	Normal BlendMode = iota
	Multiply
	Screen
	Overlay
)

var blendNames = map[BlendMode]string{
	Normal:   "normal",
	Multiply: "multiply",
	Screen:   "screen",
	Overlay:  "overlay",
}

// ParseBlendMode returns the blend mode matching name (case-insensitive).
// Unrecognized names fall back to Normal.
func ParseBlendMode(name string) BlendMode {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, n := range blendNames {
		if n == name {
			return mode
		}
	}
	return Normal
}

// String returns the persisted name of the blend mode.
func (m BlendMode) String() string {
	if n, ok := blendNames[m]; ok {
		return n
	}
	return blendNames[Normal]
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	*m = ParseBlendMode(string(text))
	return nil
}

// Mix returns the blended value of a single normalized channel,
// where base is the backdrop and top the layer color.
func (m BlendMode) Mix(base, top float64) float64 {
	switch m {
	case Multiply:
		return base * top
	case Screen:
		return 1 - (1-base)*(1-top)
	case Overlay:
		if base <= 0.5 {
			return 2 * base * top
		}
		return 1 - 2*(1-base)*(1-top)
	default:
		return top
	}
}
