package pixmod

import (
	"image"
	"math"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wand(t *testing.T, img *image.NRGBA, seed image.Point, tol int, contiguous bool) *Mask {
	t.Helper()
	m, err := MagicWandMask(img, seed, tol, contiguous)
	require.NoError(t, err)
	return m
}

func colorRange(t *testing.T, img *image.NRGBA, seed image.Point, tol int) *Mask {
	t.Helper()
	m, err := ColorRangeMask(img, seed, tol)
	require.NoError(t, err)
	return m
}

func checkerboard(n int, a, b color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, a)
			} else {
				img.SetNRGBA(x, y, b)
			}
		}
	}
	return img
}

func TestMagicWand_Checkerboard(t *testing.T) {
	assert := assert.New(t)

	img := checkerboard(3, red, blue)

	m := wand(t, img, image.Pt(1, 1), 0, true)
	assert.Equal(1, m.Count())
	assert.True(m.At(1, 1))

	// The global variant picks every pixel of the seed color.
	m = wand(t, img, image.Pt(1, 1), 0, false)
	assert.Equal(5, m.Count())
	assert.True(m.At(0, 0))
	assert.False(m.At(1, 0))
}

func TestMagicWand_Contiguous(t *testing.T) {
	assert := assert.New(t)

	img := solid(5, 3, red)
	for y := 0; y < 3; y++ {
		img.SetNRGBA(2, y, blue)
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 250, G: 4, A: 255})

	m := wand(t, img, image.Pt(1, 1), 10, true)
	assert.True(maskOf("##...", "##...", "##...").Equal(m))

	m = wand(t, img, image.Pt(1, 1), 0, true)
	assert.True(maskOf(".#...", "##...", "##...").Equal(m))

	m = colorRange(t, img, image.Pt(4, 2), 10)
	assert.True(maskOf("##.##", "##.##", "##.##").Equal(m))
}

func TestMagicWand_SeedOutside(t *testing.T) {
	img := solid(3, 3, red)
	assert.False(t, wand(t, img, image.Pt(3, 0), 50, true).Any())
	assert.False(t, colorRange(t, img, image.Pt(-1, 1), 50).Any())
	assert.Equal(t, image.Pt(3, 3), colorRange(t, img, image.Pt(-1, 1), 50).Size())
}

func TestMagicWand_InvalidBuffer(t *testing.T) {
	assert := assert.New(t)

	_, err := MagicWandMask(nil, image.Pt(0, 0), 10, true)
	assert.True(errors.Is(err, ErrInvalidBuffer))

	short := &image.NRGBA{Pix: make([]uint8, 4), Stride: 8, Rect: image.Rect(0, 0, 2, 2)}
	m, err := ColorRangeMask(short, image.Pt(0, 0), 10)
	assert.Nil(m)
	assert.True(errors.Is(err, ErrInvalidBuffer))

	_, err = MagicWandMask(short, image.Pt(0, 0), 10, false)
	assert.True(errors.Is(err, ErrInvalidBuffer))
}

func TestColorRange_HugeTolerance(t *testing.T) {
	img := solid(2, 1, red)
	img.SetNRGBA(1, 0, blue)

	for _, tol := range []int{442, 1 << 32, 3037000500, math.MaxInt} {
		m := colorRange(t, img, image.Pt(0, 0), tol)
		assert.Equal(t, 2, m.Count(), "tolerance %d", tol)
		m = wand(t, img, image.Pt(0, 0), tol, true)
		assert.Equal(t, 2, m.Count(), "tolerance %d", tol)
	}
}

func TestPolygonMask(t *testing.T) {
	assert := assert.New(t)

	square := []image.Point{{1, 1}, {3, 1}, {3, 3}, {1, 3}}
	assert.True(maskOf(
		".....",
		".###.",
		".###.",
		".###.",
		".....",
	).Equal(PolygonMask(5, 5, square)))

	tri := PolygonMask(6, 6, []image.Point{{0, 0}, {5, 0}, {0, 5}})
	assert.True(tri.At(0, 0))
	assert.True(tri.At(5, 0))
	assert.True(tri.At(0, 5))
	assert.True(tri.At(1, 1))
	assert.False(tri.At(5, 5))
	assert.False(tri.At(4, 4))

	// A zero area outline still selects its edge pixels.
	line := PolygonMask(5, 5, []image.Point{{0, 2}, {4, 2}, {0, 2}})
	assert.True(maskOf(".....", ".....", "#####", ".....", ".....").Equal(line))

	assert.False(PolygonMask(5, 5, square[:2]).Any())
	assert.Equal(0, PolygonMask(0, 5, square).Count())
	assert.Equal(0, PolygonMask(-3, 5, square).Width)
}

func TestCombine(t *testing.T) {
	assert := assert.New(t)

	cur := maskOf("##..", "##..")
	inc := maskOf(".##.", ".##.")

	assert.True(inc.Equal(Combine(nil, inc, OpSubtract)))
	assert.True(inc.Equal(Combine(NewMask(1, 1), inc, OpIntersect)))

	assert.True(inc.Equal(Combine(cur, inc, OpReplace)))
	assert.True(maskOf("###.", "###.").Equal(Combine(cur, inc, OpAdd)))
	assert.True(maskOf("#...", "#...").Equal(Combine(cur, inc, OpSubtract)))
	assert.True(maskOf(".#..", ".#..").Equal(Combine(cur, inc, OpIntersect)))
	assert.False(Combine(cur, cur, OpSubtract).Any())

	out := Combine(nil, inc, OpAdd)
	out.Set(0, 0, true)
	assert.False(inc.At(0, 0), "combine must return a copy")
}

func TestCombine_InvalidMasks(t *testing.T) {
	assert := assert.New(t)

	cur := maskOf("##..", "##..")
	bad := &Mask{Width: 4, Height: 2}

	for _, op := range []CombineOp{OpReplace, OpAdd, OpSubtract, OpIntersect} {
		assert.True(cur.Equal(Combine(cur, bad, op)), op.String())
		assert.True(cur.Equal(Combine(bad, cur, op)), op.String())
		assert.Nil(Combine(bad, bad, op), op.String())
	}
	assert.Nil(Combine(nil, nil, OpAdd))
}

func TestParseCombineOp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(OpAdd, ParseCombineOp("Add"))
	assert.Equal(OpSubtract, ParseCombineOp("subtract"))
	assert.Equal(OpIntersect, ParseCombineOp("intersect"))
	assert.Equal(OpReplace, ParseCombineOp("xor"))
	assert.Equal("intersect", OpIntersect.String())
}

func TestSelection_Region(t *testing.T) {
	assert := assert.New(t)

	sel := &Selection{Rect: image.Rect(0, 0, 2, 1)}
	assert.True(maskOf("##.", "...").Equal(sel.Region(3, 2)))

	sel.Mask = maskOf("..#", "..#")
	assert.True(sel.Mask.Equal(sel.Region(3, 2)))

	// Mask of the wrong size falls back to the rectangle.
	assert.True(maskOf("##", "..").Equal(sel.Region(2, 2)))

	sel.Invert = true
	assert.True(maskOf("##.", "##.").Equal(sel.Region(3, 2)))
}
