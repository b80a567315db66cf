package pixmod

import (
	"image"
	"math"

	"github.com/openpixmod/pixmod/imop"
)

const (
	minScale = 0.01
	maxScale = 50
)

// Transform places a processed layer on the canvas. The layer is rotated
// clockwise by Rotation degrees, scaled by Scale, centered on the canvas
// and moved by the offsets.
type Transform struct {
	Scale    float64
	OffsetX  float64
	OffsetY  float64
	Rotation int
}

// DefaultTransform returns the identity placement.
func DefaultTransform() Transform {
	return Transform{Scale: 1}
}

// NormalizeRotation maps any angle in degrees to [0, 360).
func NormalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// ScaleFactor returns the scale clamped to its lower bound.
func (t Transform) ScaleFactor() float64 {
	return math.Max(minScale, t.Scale)
}

// Selection restricts color key removal to a region of the layer source.
type Selection struct {
	// Rect is the fallback region, used when Mask does not fit the source.
	Rect image.Rectangle
	// Mask is an explicit per-pixel region.
	Mask *Mask
	// Invert swaps the inside and outside of the region.
	Invert bool
}

// Region returns the effective region for a w x h source.
func (s *Selection) Region(w, h int) *Mask {
	var region *Mask
	if s.Mask.SameSize(w, h) {
		region = s.Mask.Clone()
	} else {
		region = RectMask(w, h, s.Rect)
	}
	if s.Invert {
		region = region.Invert()
	}
	return region
}

// Layer is one image in the stack along with all its processing settings.
// Build layers with NewLayer: the zero value has opacity 0 and renders
// fully transparent.
type Layer struct {
	Name   string
	Source *image.NRGBA
	// Hidden layers are skipped when compositing.
	Hidden    bool
	Blend     imop.BlendMode
	Transform Transform
	Key       KeyOptions
	Refine    RefineOptions
	Adjust    Adjustments
	Opacity   float64
	// Selection is nil when selection is disabled.
	Selection *Selection
	// PaintMask scales the final alpha by m/255. Nil leaves it untouched.
	PaintMask *image.Alpha
}

// NewLayer returns a visible layer over src with default settings.
func NewLayer(src *image.NRGBA) *Layer {
	return &Layer{
		Source:    src,
		Blend:     imop.Normal,
		Transform: DefaultTransform(),
		Key:       DefaultKeyOptions(),
		Adjust:    DefaultAdjustments(),
		Opacity:   1,
	}
}

// RenderOptions selects the resampling filter used when scaling layers.
type RenderOptions struct {
	HighQuality     bool
	NearestNeighbor bool
}

// DefaultRenderOptions enables high quality resampling.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{HighQuality: true}
}
