package pixmod

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust_NeutralIsIdentity(t *testing.T) {
	assert := assert.New(t)

	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 37)
	}
	out, err := Adjust(src, DefaultAdjustments())
	require.NoError(t, err)
	assert.Equal(src.Pix, out.Pix)
	assert.NotSame(src, out)
	assert.True(DefaultAdjustments().IsNeutral())
}

func TestAdjust_Stages(t *testing.T) {
	px := color.NRGBA{R: 100, G: 150, B: 200, A: 77}

	tests := []struct {
		name string
		adj  func(*Adjustments)
		want color.NRGBA
	}{
		{"brightness", func(a *Adjustments) { a.Brightness = 2 }, color.NRGBA{200, 255, 255, 77}},
		{"contrast", func(a *Adjustments) { a.Contrast = 2 }, color.NRGBA{72, 172, 255, 77}},
		{"desaturate", func(a *Adjustments) { a.Saturation = 0 }, color.NRGBA{140, 140, 140, 77}},
		{"warm", func(a *Adjustments) { a.Temperature = 40 }, color.NRGBA{150, 150, 150, 77}},
		{"cold clamp", func(a *Adjustments) { a.Temperature = -1000 }, color.NRGBA{0, 150, 255, 77}},
		{"gamma", func(a *Adjustments) { a.Gamma = 0.5 }, color.NRGBA{39, 88, 156, 77}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := DefaultAdjustments()
			tc.adj(&a)
			out, err := Adjust(solid(1, 1, px), a)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.NRGBAAt(0, 0))
		})
	}
}

func TestAdjust_VibranceSparesSaturatedPixels(t *testing.T) {
	assert := assert.New(t)

	a := DefaultAdjustments()
	a.Vibrance = 2

	out, err := Adjust(solid(1, 1, red), a)
	require.NoError(t, err)
	assert.Equal(red, out.NRGBAAt(0, 0), "fully saturated pixels are left alone")

	muted := color.NRGBA{R: 140, G: 120, B: 120, A: 255}
	out, err = Adjust(solid(1, 1, muted), a)
	require.NoError(t, err)
	got := out.NRGBAAt(0, 0)
	assert.Greater(got.R, muted.R)
	assert.Less(got.G, muted.G)
}

func TestAdjust_Clamping(t *testing.T) {
	assert := assert.New(t)

	a := Adjustments{Brightness: -1, Contrast: 0, Saturation: -3, Gamma: 0, Vibrance: -1, Temperature: 500}.Clamped()
	assert.Equal(0.1, a.Brightness)
	assert.Equal(0.1, a.Contrast)
	assert.Equal(0.1, a.Gamma)
	assert.Equal(0.0, a.Saturation)
	assert.Equal(0.0, a.Vibrance)
	assert.Equal(100, a.Temperature)
}

func TestAdjust_InvalidBuffer(t *testing.T) {
	_, err := Adjust(nil, DefaultAdjustments())
	assert.True(t, errors.Is(err, ErrInvalidBuffer))

	short := &image.NRGBA{Pix: make([]uint8, 3), Stride: 8, Rect: image.Rect(0, 0, 2, 2)}
	_, err = Adjust(short, DefaultAdjustments())
	assert.True(t, errors.Is(err, ErrInvalidBuffer))
}

func TestAdjust_OffsetBounds(t *testing.T) {
	src := solid(4, 4, red)
	sub := src.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)

	out, err := Adjust(sub, DefaultAdjustments())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(1, 1))
}
