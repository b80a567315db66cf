package pixmod

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/openpixmod/pixmod/imop"
	"github.com/openpixmod/pixmod/utils"
	"github.com/pkg/errors"
)

// Composite renders the visible layers, bottom first, onto a new
// transparent canvas of the given size.
func Composite(layers []*Layer, size image.Point, opts RenderOptions) (*image.NRGBA, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.Wrapf(ErrInvalidCanvas, "composite: %dx%d", size.X, size.Y)
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))

	for i, l := range layers {
		if l == nil || l.Hidden || l.Source == nil {
			continue
		}
		tile, err := RenderLayer(l, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		pt := placement(tile.Bounds().Size(), size, l.Transform)
		imop.Composite(canvas, tile, pt, l.Blend)
	}
	return canvas, nil
}

// CompositeLayer renders a single layer onto a new canvas.
func CompositeLayer(layer *Layer, size image.Point, opts RenderOptions) (*image.NRGBA, error) {
	return Composite([]*Layer{layer}, size, opts)
}

// ProcessLayer runs the per-layer pipeline up to, but excluding, the
// geometric transform: color key, selection, refinement, adjustments,
// opacity and paint mask.
func ProcessLayer(l *Layer) (*image.NRGBA, error) {
	src, err := prepare(l.Source, "process layer")
	if err != nil {
		return nil, err
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	remove, err := Classify(src, l.Key)
	if err != nil {
		return nil, err
	}
	if l.Selection != nil {
		remove = remove.And(l.Selection.Region(w, h))
	}

	alpha, err := Refine(AlphaOf(src), remove, l.Refine)
	if err != nil {
		return nil, err
	}

	adjusted, err := Adjust(src, l.Adjust)
	if err != nil {
		return nil, err
	}

	if op := utils.Clamp(l.Opacity, 0, 1); op < 1 {
		for i, a := range alpha.Pix {
			alpha.Pix[i] = uint8(float64(a) * op)
		}
	}

	if pm := l.PaintMask; pm != nil && pm.Bounds().Dx() == w && pm.Bounds().Dy() == h {
		if pm, err = prepareAlpha(pm, "paint mask"); err == nil {
			for i, a := range alpha.Pix {
				alpha.Pix[i] = uint8(int(a) * int(pm.Pix[i]) / 255)
			}
		}
	}

	return withAlpha(adjusted, alpha), nil
}

// RenderLayer processes the layer and applies its rotation and scale.
// The returned tile is ready to be placed on a canvas.
func RenderLayer(l *Layer, opts RenderOptions) (*image.NRGBA, error) {
	img, err := ProcessLayer(l)
	if err != nil {
		return nil, err
	}

	if rot := NormalizeRotation(l.Transform.Rotation); rot != 0 {
		img = imaging.Rotate(img, -float64(rot), color.Transparent)
	}

	scale := l.Transform.ScaleFactor()
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw := utils.Max(1, int(math.RoundToEven(float64(w)*scale)))
	nh := utils.Max(1, int(math.RoundToEven(float64(h)*scale)))
	if nw != w || nh != h {
		img = imaging.Resize(img, nw, nh, resampleFilter(opts))
	}
	return img, nil
}

func resampleFilter(opts RenderOptions) imaging.ResampleFilter {
	switch {
	case opts.NearestNeighbor:
		return imaging.NearestNeighbor
	case opts.HighQuality:
		return imaging.Lanczos
	default:
		return imaging.Linear
	}
}

// placement returns the top-left canvas position of a tile centered on the
// canvas and shifted by the transform offsets.
func placement(tile, canvas image.Point, t Transform) image.Point {
	cx, cy := float64(canvas.X)*0.5, float64(canvas.Y)*0.5
	x := math.RoundToEven(cx - float64(tile.X)*0.5 + t.OffsetX)
	y := math.RoundToEven(cy - float64(tile.Y)*0.5 + t.OffsetY)
	return image.Pt(int(x), int(y))
}
