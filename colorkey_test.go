package pixmod

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 17), G: uint8(y * 23), B: uint8((x + y) * 11), A: 255})
		}
	}
	return img
}

func TestClassify_EmptyPalette(t *testing.T) {
	img := gradient(8, 8)

	for _, opts := range []KeyOptions{
		DefaultKeyOptions(),
		{Palette: []PaletteEntry{{Color: red}, {Color: green}}, Tolerance: 500},
		{Palette: []PaletteEntry{{Color: red}}, Mode: KeyHSV, HueTol: 180, SatTol: 255, ValTol: 255},
	} {
		m, err := Classify(img, opts)
		require.NoError(t, err)
		assert.False(t, m.Any())
		assert.Equal(t, image.Pt(8, 8), m.Size())
	}
}

func TestClassify_RGBTolerance(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 11, G: 20, B: 30, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 13, G: 24, B: 30, A: 255})

	opts := DefaultKeyOptions()
	opts.Palette = entries(color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	for _, tc := range []struct {
		tol  int
		want string
	}{
		{-5, "#.."},
		{0, "#.."},
		{1, "##."},
		{4, "##."},
		{5, "###"},
	} {
		opts.Tolerance = tc.tol
		m, err := Classify(img, opts)
		require.NoError(t, err)
		assert.True(maskOf(tc.want).Equal(m), "tolerance %d", tc.tol)
	}
}

func TestClassify_ToleranceAboveRangeMatchesEverything(t *testing.T) {
	img := gradient(6, 6)
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	opts := DefaultKeyOptions()
	opts.Palette = entries(color.NRGBA{A: 255})

	for _, tol := range []int{442, 1 << 32, 3037000500, math.MaxInt} {
		opts.Tolerance = tol
		m, err := Classify(img, opts)
		require.NoError(t, err)
		assert.Equal(t, 36, m.Count(), "tolerance %d", tol)
	}
}

func TestClassify_ScenarioGreenKey(t *testing.T) {
	assert := assert.New(t)

	img := solid(2, 2, red)
	img.SetNRGBA(1, 0, green)

	opts := DefaultKeyOptions()
	opts.Palette = entries(green)
	opts.Tolerance = 0

	m, err := Classify(img, opts)
	require.NoError(t, err)
	assert.True(maskOf(".#", "..").Equal(m))

	alpha, err := Refine(AlphaOf(img), m, RefineOptions{})
	require.NoError(t, err)
	assert.Equal([]uint8{255, 0, 255, 255}, alpha.Pix)
}

func TestClassify_HSVHueWraps(t *testing.T) {
	assert := assert.New(t)

	ref := color.NRGBA{R: 255, B: 4, A: 255} // hue ~359
	px := color.NRGBA{R: 255, G: 4, A: 255}  // hue ~1

	opts := DefaultKeyOptions()
	opts.Mode = KeyHSV
	opts.Palette = entries(ref)
	opts.SatTol, opts.ValTol = 0, 0

	opts.HueTol = 2
	m, err := Classify(solid(1, 1, px), opts)
	require.NoError(t, err)
	assert.True(m.At(0, 0))

	opts.HueTol = 1
	m, err = Classify(solid(1, 1, px), opts)
	require.NoError(t, err)
	assert.False(m.At(0, 0))
}

func TestClassify_HSVWindows(t *testing.T) {
	assert := assert.New(t)

	opts := DefaultKeyOptions()
	opts.Mode = KeyHSV
	opts.Palette = entries(green)

	// Same hue, darker: value differs by 55.
	dark := color.NRGBA{G: 200, A: 255}
	opts.ValTol = 40
	m, err := Classify(solid(1, 1, dark), opts)
	require.NoError(t, err)
	assert.False(m.At(0, 0))

	opts.ValTol = 60
	m, err = Classify(solid(1, 1, dark), opts)
	require.NoError(t, err)
	assert.True(m.At(0, 0))

	// Tolerances above range are clamped, so every pixel matches.
	opts.HueTol, opts.SatTol, opts.ValTol = 1000, 1000, 1000
	m, err = Classify(gradient(5, 5), opts)
	require.NoError(t, err)
	assert.Equal(25, m.Count())
}

func TestToHSV(t *testing.T) {
	assert := assert.New(t)

	c := toHSV(0, 0, 0)
	assert.Equal(hsv{}, c)

	c = toHSV(128, 128, 128)
	assert.Equal(0.0, c.h)
	assert.Equal(0.0, c.s)
	assert.InDelta(128, c.v, 1e-9)

	c = toHSV(0, 0, 255)
	assert.InDelta(240, c.h, 1e-9)
	assert.InDelta(255, c.s, 1e-9)

	assert.InDelta(2, hueDistance(359, 1), 1e-9)
	assert.InDelta(180, hueDistance(0, 180), 1e-9)
}

func TestParseKeyMode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(KeyHSV, ParseKeyMode(" HSV "))
	assert.Equal(KeyRGB, ParseKeyMode("rgb"))
	assert.Equal(KeyRGB, ParseKeyMode("lab"))
	assert.Equal("hsv", KeyHSV.String())

	var m KeyMode
	require.NoError(t, m.UnmarshalText([]byte("hsv")))
	assert.Equal(KeyHSV, m)
}

func TestApplyColorKey(t *testing.T) {
	assert := assert.New(t)

	img := solid(2, 1, blue)
	img.SetNRGBA(0, 0, green)

	opts := DefaultKeyOptions()
	opts.Palette = entries(green)

	out, err := ApplyColorKey(img, opts)
	require.NoError(t, err)
	assert.Equal(uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(blue, out.NRGBAAt(1, 0))
	assert.Equal(green, img.NRGBAAt(0, 0), "source must stay untouched")

	_, err = ApplyColorKey(nil, opts)
	assert.True(errors.Is(err, ErrInvalidBuffer))
}
