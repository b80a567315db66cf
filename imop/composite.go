package imop

import (
	"image"

	"github.com/openpixmod/pixmod/utils"
)

// alphaEpsilon is the output coverage under which a pixel is considered empty.
const alphaEpsilon = 1e-6

// Composite blends src onto dst with its top-left corner placed at pt.
// Pixels falling outside of dst are clipped. dst is modified in place.
//
// The composition follows the source-over operator on premultiplied values:
//
//	outA   = srcA + dstA*(1-srcA)
//	outRGB = (mix*srcA + dstRGB*dstA*(1-srcA)) / outA
//
// where mix is the blend mode applied to the backdrop and source colors.
// Backdrop pixels under a fully transparent source pixel are left untouched.
func Composite(dst, src *image.NRGBA, pt image.Point, mode BlendMode) {
	if dst == nil || src == nil {
		return
	}
	sb := src.Bounds()
	r := image.Rectangle{Min: pt, Max: pt.Add(sb.Size())}.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := src.PixOffset(sb.Min.X+r.Min.X-pt.X, sb.Min.Y+y-pt.Y)
		di := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			BlendPixel(dst.Pix[di:di+4:di+4], src.Pix[si:si+4:si+4], mode)
			si += 4
			di += 4
		}
	}
}

// BlendPixel composites a single non-premultiplied RGBA source pixel over
// the backdrop pixel, writing the result into base.
func BlendPixel(base, top []uint8, mode BlendMode) {
	if top[3] == 0 {
		return
	}
	ta := float64(top[3]) / 255
	ba := float64(base[3]) / 255

	outA := ta + ba*(1-ta)
	if outA <= alphaEpsilon {
		base[0], base[1], base[2], base[3] = 0, 0, 0, 0
		return
	}

	if _, ok := blendNames[mode]; !ok {
		mode = Normal
	}
	for c := 0; c < 3; c++ {
		// Normal mode stays on the 0..255 scale so opaque layers reproduce exactly.
		mixed := float64(top[c])
		if mode != Normal {
			mixed = mode.Mix(float64(base[c])/255, float64(top[c])/255) * 255
		}
		v := (mixed*ta + float64(base[c])*ba*(1-ta)) / outA
		base[c] = utils.RoundByte(v)
	}
	base[3] = utils.RoundByte(outA * 255)
}
