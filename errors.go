package pixmod

import (
	"image"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidBuffer is returned when a pixel buffer is nil, empty or
	// its pixel slice does not match its declared bounds.
	ErrInvalidBuffer = errors.New("invalid pixel buffer")
	// ErrSizeMismatch is returned when two buffers consumed together do not
	// share the same dimensions.
	ErrSizeMismatch = errors.New("buffer size mismatch")
	// ErrInvalidCanvas is returned for a non-positive output canvas size.
	ErrInvalidCanvas = errors.New("invalid canvas size")
)

// prepare validates img and returns it with its origin at (0, 0).
func prepare(img *image.NRGBA, op string) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.Wrapf(ErrInvalidBuffer, "%s: nil image", op)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Wrapf(ErrInvalidBuffer, "%s: empty bounds %v", op, b)
	}
	if img.Stride < b.Dx()*4 || len(img.Pix) < (b.Dy()-1)*img.Stride+b.Dx()*4 {
		return nil, errors.Wrapf(ErrInvalidBuffer, "%s: %d bytes with stride %d for bounds %v",
			op, len(img.Pix), img.Stride, b)
	}
	if b.Min != (image.Point{}) {
		return ToNRGBA(img), nil
	}
	return img, nil
}

// prepareAlpha validates alpha and returns it with its origin at (0, 0).
func prepareAlpha(alpha *image.Alpha, op string) (*image.Alpha, error) {
	if alpha == nil {
		return nil, errors.Wrapf(ErrInvalidBuffer, "%s: nil alpha", op)
	}
	b := alpha.Bounds()
	if b.Empty() {
		return nil, errors.Wrapf(ErrInvalidBuffer, "%s: empty alpha bounds %v", op, b)
	}
	if alpha.Stride < b.Dx() || len(alpha.Pix) < (b.Dy()-1)*alpha.Stride+b.Dx() {
		return nil, errors.Wrapf(ErrInvalidBuffer, "%s: %d alpha bytes with stride %d for bounds %v",
			op, len(alpha.Pix), alpha.Stride, b)
	}
	if b.Min == (image.Point{}) && alpha.Stride == b.Dx() {
		return alpha, nil
	}
	dst := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := alpha.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], alpha.Pix[si:si+b.Dx()])
	}
	return dst, nil
}
