package pixmod

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/openpixmod/pixmod/utils"
	"github.com/pkg/errors"
)

const (
	maxGrowShrink = 20
	maxFeather    = 20
)

// RefineOptions configures the mask refinement engine.
type RefineOptions struct {
	// GrowShrink dilates (positive) or erodes (negative) the removal mask
	// by this many 3x3 passes.
	GrowShrink int
	// FeatherRadius is the gaussian sigma used to soften the alpha edges.
	FeatherRadius int
	// MinIslandSize is the smallest opaque 4-connected region kept.
	// Zero or negative disables island removal.
	MinIslandSize int
}

// Clamped returns a copy with every parameter forced into its valid range.
func (o RefineOptions) Clamped() RefineOptions {
	o.GrowShrink = utils.Clamp(o.GrowShrink, -maxGrowShrink, maxGrowShrink)
	o.FeatherRadius = utils.Clamp(o.FeatherRadius, 0, maxFeather)
	return o
}

// Refine turns the removal mark into a new alpha channel. The removal mask
// is grown or shrunk, the alpha is cleared under it, small opaque islands
// are dropped and the edges are feathered when anything was removed.
func Refine(alpha *image.Alpha, remove *Mask, opts RefineOptions) (*image.Alpha, error) {
	a, err := prepareAlpha(alpha, "refine")
	if err != nil {
		return nil, err
	}
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if !remove.SameSize(w, h) {
		return nil, errors.Wrapf(ErrSizeMismatch, "refine: alpha %dx%d, mask %v", w, h, remove.Size())
	}
	opts = opts.Clamped()

	morphed := remove
	switch {
	case opts.GrowShrink > 0:
		morphed = Dilate(remove, opts.GrowShrink)
	case opts.GrowShrink < 0:
		morphed = Erode(remove, -opts.GrowShrink)
	}

	out := image.NewAlpha(image.Rect(0, 0, w, h))
	copy(out.Pix, a.Pix)
	for i, b := range morphed.Bits {
		if b {
			out.Pix[i] = 0
		}
	}

	if opts.MinIslandSize > 0 {
		out = removeIslands(out, opts.MinIslandSize)
	}
	if opts.FeatherRadius > 0 && morphed.Any() {
		out = feather(out, opts.FeatherRadius)
	}
	return out, nil
}

// Dilate grows the set bits of m by n passes of a 3x3 max filter.
// Neighbors outside the mask are ignored.
func Dilate(m *Mask, n int) *Mask {
	return morph(m, n, true)
}

// Erode shrinks the set bits of m by n passes of a 3x3 min filter.
// Neighbors outside the mask are ignored, so edge bits are not eroded by
// the border.
func Erode(m *Mask, n int) *Mask {
	return morph(m, n, false)
}

// morph runs n passes of a separable 3x3 filter. With grow set a bit
// becomes true if any neighbor is true, otherwise it stays true only if
// every neighbor is true.
func morph(m *Mask, n int, grow bool) *Mask {
	if m == nil {
		return nil
	}
	cur := m.Clone()
	if n <= 0 || cur.Width == 0 || cur.Height == 0 {
		return cur
	}
	w, h := cur.Width, cur.Height
	tmp := NewMask(w, h)

	for ; n > 0; n-- {
		// Horizontal pass into tmp.
		for y := 0; y < h; y++ {
			row := cur.Bits[y*w : (y+1)*w]
			out := tmp.Bits[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				v := row[x]
				if x > 0 {
					v = combineBit(v, row[x-1], grow)
				}
				if x < w-1 {
					v = combineBit(v, row[x+1], grow)
				}
				out[x] = v
			}
		}
		// Vertical pass back into cur.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				v := tmp.Bits[i]
				if y > 0 {
					v = combineBit(v, tmp.Bits[i-w], grow)
				}
				if y < h-1 {
					v = combineBit(v, tmp.Bits[i+w], grow)
				}
				cur.Bits[i] = v
			}
		}
	}
	return cur
}

func combineBit(a, b, grow bool) bool {
	if grow {
		return a || b
	}
	return a && b
}

// RemoveIslands returns a copy of alpha where every 4-connected region of
// non-zero pixels smaller than minSize is made fully transparent.
func RemoveIslands(alpha *image.Alpha, minSize int) (*image.Alpha, error) {
	a, err := prepareAlpha(alpha, "remove islands")
	if err != nil {
		return nil, err
	}
	out := image.NewAlpha(a.Bounds())
	copy(out.Pix, a.Pix)
	if minSize <= 0 {
		return out, nil
	}
	return removeIslands(out, minSize), nil
}

// removeIslands clears small components of a packed alpha in place.
func removeIslands(alpha *image.Alpha, minSize int) *image.Alpha {
	w, h := alpha.Bounds().Dx(), alpha.Bounds().Dy()
	visited := make([]bool, w*h)
	queue := make([]int, 0, 64)
	component := make([]int, 0, 64)

	for start := range alpha.Pix {
		if visited[start] || alpha.Pix[start] == 0 {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		component = component[:0]

		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			component = append(component, i)

			x, y := i%w, i/w
			neighbors := [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
			for _, n := range neighbors {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if visited[j] || alpha.Pix[j] == 0 {
					continue
				}
				visited[j] = true
				queue = append(queue, j)
			}
		}

		if len(component) < minSize {
			for _, i := range component {
				alpha.Pix[i] = 0
			}
		}
	}
	return alpha
}

// feather blurs the alpha channel with a gaussian of the given sigma.
func feather(alpha *image.Alpha, radius int) *image.Alpha {
	gray := &image.Gray{
		Pix:    alpha.Pix,
		Stride: alpha.Stride,
		Rect:   alpha.Rect,
	}
	blurred := imaging.Blur(gray, float64(radius))

	w, h := alpha.Bounds().Dx(), alpha.Bounds().Dy()
	out := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := blurred.PixOffset(0, y)
		di := y * out.Stride
		for x := 0; x < w; x++ {
			out.Pix[di+x] = blurred.Pix[si+x*4]
		}
	}
	return out
}
