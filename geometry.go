package pixmod

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/openpixmod/pixmod/utils"
	"gonum.org/v1/gonum/mat"
)

// FlipHorizontal returns img mirrored left to right.
func FlipHorizontal(img *image.NRGBA) (*image.NRGBA, error) {
	src, err := prepare(img, "flip horizontal")
	if err != nil {
		return nil, err
	}
	return imaging.FlipH(src), nil
}

// FlipVertical returns img mirrored top to bottom.
func FlipVertical(img *image.NRGBA) (*image.NRGBA, error) {
	src, err := prepare(img, "flip vertical")
	if err != nil {
		return nil, err
	}
	return imaging.FlipV(src), nil
}

// TrimTransparent crops img to the bounding box of its non transparent
// pixels. The crop rectangle is returned in source coordinates; it is
// empty, and img is returned as is, when every pixel is transparent.
func TrimTransparent(img *image.NRGBA) (*image.NRGBA, image.Rectangle, error) {
	src, err := prepare(img, "trim")
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	opaque := NewMask(w, h)
	for y := 0; y < h; y++ {
		off := src.PixOffset(0, y)
		for x := 0; x < w; x++ {
			opaque.Bits[y*w+x] = src.Pix[off+x*4+3] > 0
		}
	}
	r, ok := BoundingRect(opaque)
	if !ok {
		return src, image.Rectangle{}, nil
	}
	return imaging.Crop(src, r), r, nil
}

// FitScale returns the scale factor fitting src inside canvas while keeping
// the aspect ratio, clamped to the valid scale range.
func FitScale(src, canvas image.Point) float64 {
	if src.X <= 0 || src.Y <= 0 || canvas.X <= 0 || canvas.Y <= 0 {
		return 1
	}
	s := math.Min(float64(canvas.X)/float64(src.X), float64(canvas.Y)/float64(src.Y))
	return utils.Clamp(s, minScale, maxScale)
}

// CanvasToSource maps the canvas point p back to the source pixel it was
// sampled from, given the layer transform, the source size and the canvas
// size. The boolean is false when p falls outside the placed source.
func CanvasToSource(t Transform, src, canvas, p image.Point) (image.Point, bool) {
	if src.X <= 0 || src.Y <= 0 {
		return image.Point{}, false
	}
	var (
		s     = t.ScaleFactor()
		theta = float64(NormalizeRotation(t.Rotation)) * math.Pi / 180
		sin   = math.Sin(theta)
		cos   = math.Cos(theta)
	)

	// canvas = T(center + offset) * S(s) * R(theta) * T(-source center) * source
	toCanvas := mat.NewDense(3, 3, []float64{
		1, 0, float64(canvas.X)*0.5 + t.OffsetX,
		0, 1, float64(canvas.Y)*0.5 + t.OffsetY,
		0, 0, 1,
	})
	scale := mat.NewDense(3, 3, []float64{
		s, 0, 0,
		0, s, 0,
		0, 0, 1,
	})
	rotate := mat.NewDense(3, 3, []float64{
		cos, -sin, 0,
		sin, cos, 0,
		0, 0, 1,
	})
	fromSource := mat.NewDense(3, 3, []float64{
		1, 0, -float64(src.X) * 0.5,
		0, 1, -float64(src.Y) * 0.5,
		0, 0, 1,
	})

	var fwd mat.Dense
	fwd.Product(toCanvas, scale, rotate, fromSource)

	var inv mat.Dense
	if err := inv.Inverse(&fwd); err != nil {
		return image.Point{}, false
	}

	var v mat.VecDense
	v.MulVec(&inv, mat.NewVecDense(3, []float64{float64(p.X), float64(p.Y), 1}))

	const eps = 1e-9
	x := int(math.Floor(v.AtVec(0) + eps))
	y := int(math.Floor(v.AtVec(1) + eps))
	if x < 0 || y < 0 || x >= src.X || y >= src.Y {
		return image.Point{}, false
	}
	return image.Pt(x, y), true
}
