package pixmod

import (
	"image"
	"image/color"
	"image/color/palette"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImage_ToNRGBA(t *testing.T) {
	rect := image.Rect(-1, -1, 15, 15)
	colors := palette.Plan9

	nrgba := image.NewNRGBA(rect)
	paletted := image.NewPaletted(rect, colors)
	ycbcr := image.NewYCbCr(rect, image.YCbCrSubsampleRatio420)
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := colors[i%len(colors)]
			nrgba.Set(x, y, c)
			paletted.Set(x, y, c)
			r, g, b, _ := c.RGBA()
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			ycbcr.Y[ycbcr.YOffset(x, y)] = yy
			ycbcr.Cb[ycbcr.COffset(x, y)] = cb
			ycbcr.Cr[ycbcr.COffset(x, y)] = cr
			i++
		}
	}

	testCases := []struct {
		name string
		img  image.Image
	}{
		{"NRGBA", nrgba},
		{"Paletted", paletted},
		{"YCbCr-420", ycbcr},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			dst := ToNRGBA(tc.img)
			assert.Equal(image.Rect(0, 0, rect.Dx(), rect.Dy()), dst.Bounds())
			for y := 0; y < rect.Dy(); y++ {
				for x := 0; x < rect.Dx(); x++ {
					want := color.NRGBAModel.Convert(tc.img.At(x+rect.Min.X, y+rect.Min.Y)).(color.NRGBA)
					got := dst.NRGBAAt(x, y)
					assert.InDelta(want.R, got.R, 1)
					assert.InDelta(want.G, got.G, 1)
					assert.InDelta(want.B, got.B, 1)
					assert.Equal(want.A, got.A)
				}
			}
		})
	}
}

func TestImage_ToNRGBAKeepsOriginImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	assert.Same(t, img, ToNRGBA(img))
}

func TestImage_AlphaOf(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 40})
	img.SetNRGBA(1, 0, color.NRGBA{G: 10, A: 255})

	alpha := AlphaOf(img)
	assert.Equal([]uint8{40, 255}, alpha.Pix)

	cp := withAlpha(img, image.NewAlpha(image.Rect(0, 0, 2, 1)))
	assert.Equal(uint8(10), cp.Pix[0])
	assert.Equal(uint8(0), cp.Pix[3])
	assert.Equal(uint8(40), img.Pix[3])
}
