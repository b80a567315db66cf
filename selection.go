package pixmod

import (
	"image"
	"image/draw"
	"strings"

	"github.com/openpixmod/pixmod/utils"
	"golang.org/x/image/vector"
)

// CombineOp selects how a new selection is merged with the current one.
type CombineOp int

const (
	OpReplace CombineOp = iota
	OpAdd
	OpSubtract
	OpIntersect
)

var combineNames = map[string]CombineOp{
	"replace":   OpReplace,
	"add":       OpAdd,
	"subtract":  OpSubtract,
	"intersect": OpIntersect,
}

// ParseCombineOp returns the operation with the given name, or OpReplace.
func ParseCombineOp(s string) CombineOp {
	if op, ok := combineNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return op
	}
	return OpReplace
}

func (op CombineOp) String() string {
	for name, o := range combineNames {
		if o == op {
			return name
		}
	}
	return "replace"
}

// Combine merges incoming into current. A missing or differently sized
// current mask yields a copy of incoming; a missing or invalid incoming
// mask leaves current unchanged.
func Combine(current, incoming *Mask, op CombineOp) *Mask {
	if !incoming.Valid() {
		if !current.Valid() {
			return nil
		}
		return current.Clone()
	}
	if current == nil || !current.SameSize(incoming.Width, incoming.Height) {
		return incoming.Clone()
	}
	out := NewMask(incoming.Width, incoming.Height)
	for i := range out.Bits {
		c, n := current.Bits[i], incoming.Bits[i]
		switch op {
		case OpAdd:
			out.Bits[i] = c || n
		case OpSubtract:
			out.Bits[i] = c && !n
		case OpIntersect:
			out.Bits[i] = c && n
		default:
			out.Bits[i] = n
		}
	}
	return out
}

func colorWithin(pix []uint8, i int, ref [3]int, tol2 int) bool {
	dr := int(pix[i]) - ref[0]
	dg := int(pix[i+1]) - ref[1]
	db := int(pix[i+2]) - ref[2]
	return dr*dr+dg*dg+db*db <= tol2
}

// ColorRangeMask selects every pixel of img whose RGB distance to the seed
// pixel color is within tol. A seed outside the image gives an empty mask.
func ColorRangeMask(img *image.NRGBA, seed image.Point, tol int) (*Mask, error) {
	src, err := prepare(img, "color range")
	if err != nil {
		return nil, err
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	mask := NewMask(w, h)
	if !seed.In(src.Bounds()) {
		return mask, nil
	}
	ref, tol2 := seedColor(src, seed, tol)
	for y := 0; y < h; y++ {
		off := src.PixOffset(0, y)
		for x := 0; x < w; x++ {
			mask.Bits[y*w+x] = colorWithin(src.Pix, off+x*4, ref, tol2)
		}
	}
	return mask, nil
}

// MagicWandMask selects the pixels similar to the seed color. When
// contiguous is set only the 4-connected region reachable from the seed is
// selected, otherwise it behaves like ColorRangeMask.
func MagicWandMask(img *image.NRGBA, seed image.Point, tol int, contiguous bool) (*Mask, error) {
	if !contiguous {
		return ColorRangeMask(img, seed, tol)
	}
	src, err := prepare(img, "magic wand")
	if err != nil {
		return nil, err
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	mask := NewMask(w, h)
	if !seed.In(src.Bounds()) {
		return mask, nil
	}
	ref, tol2 := seedColor(src, seed, tol)

	start := seed.Y*w + seed.X
	mask.Bits[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%w, i/w
		for _, n := range [4]image.Point{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
				continue
			}
			j := n.Y*w + n.X
			if mask.Bits[j] || !colorWithin(src.Pix, src.PixOffset(n.X, n.Y), ref, tol2) {
				continue
			}
			mask.Bits[j] = true
			queue = append(queue, j)
		}
	}
	return mask, nil
}

func seedColor(src *image.NRGBA, seed image.Point, tol int) ([3]int, int) {
	i := src.PixOffset(seed.X, seed.Y)
	ref := [3]int{int(src.Pix[i]), int(src.Pix[i+1]), int(src.Pix[i+2])}
	return ref, squaredTolerance(tol)
}

// PolygonMask rasterizes the closed polygon through pts, interior and
// edge pixels included. Vertices address pixel centers. Fewer than three
// points or a non-positive size yield an empty mask.
func PolygonMask(w, h int, pts []image.Point) *Mask {
	mask := NewMask(w, h)
	if len(pts) < 3 || mask.Width == 0 || mask.Height == 0 {
		return mask
	}

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	z.MoveTo(float32(pts[0].X)+0.5, float32(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X)+0.5, float32(p.Y)+0.5)
	}
	z.ClosePath()

	cov := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(cov, cov.Bounds(), image.Opaque, image.Point{})
	for i, a := range cov.Pix {
		mask.Bits[i] = a >= 0x80
	}

	// Half covered edge pixels and zero area outlines come from the trace.
	for i := range pts {
		traceLine(mask, pts[i], pts[(i+1)%len(pts)])
	}
	return mask
}

// traceLine sets the pixels of the segment a-b using Bresenham's algorithm.
func traceLine(m *Mask, a, b image.Point) {
	dx := utils.Abs(b.X - a.X)
	dy := -utils.Abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		m.Set(x, y, true)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}
