package pixmod

import "image"

// Mask is a boolean per-pixel grid used both as the color key removal mark
// and as a selection. Bits are stored row-major.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask returns an all false mask. Negative dimensions are treated as zero.
func NewMask(w, h int) *Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Mask{Width: w, Height: h, Bits: make([]bool, w*h)}
}

// FullMask returns an all true mask.
func FullMask(w, h int) *Mask {
	m := NewMask(w, h)
	for i := range m.Bits {
		m.Bits[i] = true
	}
	return m
}

// Size returns the mask dimensions as a point.
func (m *Mask) Size() image.Point {
	if m == nil {
		return image.Point{}
	}
	return image.Pt(m.Width, m.Height)
}

// Valid reports whether the mask is non nil and Bits holds exactly
// Width*Height entries.
func (m *Mask) Valid() bool {
	return m != nil && m.Width >= 0 && m.Height >= 0 && len(m.Bits) == m.Width*m.Height
}

// SameSize reports whether the mask is valid and has the given dimensions.
func (m *Mask) SameSize(w, h int) bool {
	return m != nil && m.Width == w && m.Height == h && len(m.Bits) == w*h
}

// At reports the bit at (x, y). Points outside the mask are false.
func (m *Mask) At(x, y int) bool {
	if !m.Valid() || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set updates the bit at (x, y). Points outside the mask are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if !m.Valid() || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}
	c := &Mask{Width: m.Width, Height: m.Height, Bits: make([]bool, len(m.Bits))}
	copy(c.Bits, m.Bits)
	return c
}

// Any reports whether at least one bit is set.
func (m *Mask) Any() bool {
	if m == nil {
		return false
	}
	for _, b := range m.Bits {
		if b {
			return true
		}
	}
	return false
}

// Count returns the number of set bits.
func (m *Mask) Count() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Invert returns the complement of the mask. An invalid mask is returned
// as a plain copy.
func (m *Mask) Invert() *Mask {
	if !m.Valid() {
		return m.Clone()
	}
	c := NewMask(m.Width, m.Height)
	for i, b := range m.Bits {
		c.Bits[i] = !b
	}
	return c
}

// And returns the intersection of m and o. A nil or differently sized o
// leaves m unrestricted.
func (m *Mask) And(o *Mask) *Mask {
	if !m.Valid() || !o.SameSize(m.Width, m.Height) {
		return m.Clone()
	}
	c := NewMask(m.Width, m.Height)
	for i, b := range m.Bits {
		c.Bits[i] = b && o.Bits[i]
	}
	return c
}

// Equal reports whether both masks have the same size and bits.
func (m *Mask) Equal(o *Mask) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Width != o.Width || m.Height != o.Height || len(m.Bits) != len(o.Bits) {
		return false
	}
	for i := range m.Bits {
		if m.Bits[i] != o.Bits[i] {
			return false
		}
	}
	return true
}

// RectMask returns a mask with the rectangle r, clipped to the mask
// bounds, set to true.
func RectMask(w, h int, r image.Rectangle) *Mask {
	m := NewMask(w, h)
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Bits[y*m.Width : (y+1)*m.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = true
		}
	}
	return m
}

// BoundingRect returns the smallest rectangle enclosing every set bit.
// The boolean result is false for an empty or invalid mask.
func BoundingRect(m *Mask) (image.Rectangle, bool) {
	if !m.Valid() {
		return image.Rectangle{}, false
	}
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Bits[y*m.Width : (y+1)*m.Width]
		for x, b := range row {
			if !b {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
