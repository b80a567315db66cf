package pixmod

import (
	"image"

	"github.com/disintegration/imaging"
)

// ToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
// An *image.NRGBA already anchored at the origin is returned unchanged.
func ToNRGBA(img image.Image) *image.NRGBA {
	if src, ok := img.(*image.NRGBA); ok && src.Rect.Min == (image.Point{}) {
		return src
	}
	return imaging.Clone(img)
}

// AlphaOf extracts the alpha channel of an origin anchored image.
func AlphaOf(img *image.NRGBA) *image.Alpha {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	alpha := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := img.PixOffset(0, y)
		di := y * alpha.Stride
		for x := 0; x < w; x++ {
			alpha.Pix[di+x] = img.Pix[si+x*4+3]
		}
	}
	return alpha
}

// withAlpha returns a copy of img carrying the given alpha channel.
func withAlpha(img *image.NRGBA, alpha *image.Alpha) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := img.PixOffset(0, y)
		di := dst.PixOffset(0, y)
		copy(dst.Pix[di:di+w*4], img.Pix[si:si+w*4])
		ai := y * alpha.Stride
		for x := 0; x < w; x++ {
			dst.Pix[di+x*4+3] = alpha.Pix[ai+x]
		}
	}
	return dst
}

// clone returns a packed copy of an origin anchored image.
func clone(img *image.NRGBA) *image.NRGBA {
	return imaging.Clone(img)
}
