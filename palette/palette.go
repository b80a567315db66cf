// Package palette parses key color lists and suggests background colors
// for an image by clustering the pixels along its border.
package palette

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/openpixmod/pixmod"
)

// Method selects the clustering used by Suggest.
type Method int

const (
	MethodDominant Method = iota
	MethodKMeans
)

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParseMethod maps "kmeans" to MethodKMeans and anything else to MethodDominant.
func ParseMethod(s string) Method {
	if strings.EqualFold(strings.TrimSpace(s), "kmeans") {
		return MethodKMeans
	}
	return MethodDominant
}

// Parse reads a comma or space separated list of hex colors, like
// "#00ff00,#fff", into enabled palette entries.
func Parse(s string) ([]pixmod.PaletteEntry, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	entries := make([]pixmod.PaletteEntry, 0, len(fields))
	for _, f := range fields {
		if !strings.HasPrefix(f, "#") {
			f = "#" + f
		}
		if len(f) != 4 && len(f) != 7 {
			return nil, fmt.Errorf("invalid key color %q: expected #rgb or #rrggbb", f)
		}
		c, err := colorful.Hex(strings.ToLower(f))
		if err != nil {
			return nil, fmt.Errorf("invalid key color %q: %w", f, err)
		}
		entries = append(entries, pixmod.PaletteEntry{Color: toNRGBA(c), Enabled: true})
	}
	return entries, nil
}

// Format returns the hex notation of the enabled entries, comma separated.
func Format(entries []pixmod.PaletteEntry) string {
	hex := make([]string, 0, len(entries))
	for _, c := range pixmod.EnabledColors(entries) {
		hex = append(hex, fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	}
	return strings.Join(hex, ",")
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Border returns the opaque pixels of the outer strip of img packed into
// a near square image. The strip is a twentieth of the shorter side wide,
// at least one pixel. Slots past the last strip pixel repeat the strip
// from its start so the result stays fully opaque.
func Border(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	strip := max(1, min(w, h)/20)

	var pix []color.NRGBA
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= strip && x < w-strip && y >= strip && y < h-strip {
				continue
			}
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			pix = append(pix, c)
		}
	}
	if len(pix) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	side := int(math.Ceil(math.Sqrt(float64(len(pix)))))
	rows := (len(pix) + side - 1) / side
	dst := image.NewNRGBA(image.Rect(0, 0, side, rows))
	for i := 0; i < side*rows; i++ {
		dst.SetNRGBA(i%side, i/side, pix[i%len(pix)])
	}
	return dst
}

// Suggest returns up to k likely background colors of img, most frequent
// first. Colors closer than a small perceptual distance are merged.
func Suggest(img image.Image, k int, method Method) []color.NRGBA {
	if k <= 0 {
		return nil
	}
	border := Border(img)
	if border.Bounds().Empty() {
		return nil
	}

	var cands []weightedColor
	switch method {
	case MethodKMeans:
		cands = kmeansCandidates(border, k)
		if len(cands) == 0 {
			log.Println("palette warning: kmeans returned no clusters, falling back to dominantcolor")
			cands = dominantCandidates(border, k)
		}
	default:
		cands = dominantCandidates(border, k)
	}
	return pick(cands, k)
}

type weightedColor struct {
	col    colorful.Color
	weight float64
}

func dominantCandidates(img image.Image, k int) []weightedColor {
	found := dominantcolor.FindWeight(img, max(k*2, 4))
	cands := make([]weightedColor, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		cands = append(cands, weightedColor{col: col.Clamped(), weight: c.Weight})
	}
	return cands
}

func kmeansCandidates(img *image.NRGBA, k int) []weightedColor {
	b := img.Bounds()
	n := b.Dx() * b.Dy()

	// Subsample to keep kmeans tractable on large borders.
	const maxSamples = 12000
	step := 1
	if n > maxSamples {
		step = n/maxSamples + 1
	}
	dataset := make(clusters.Observations, 0, min(n, maxSamples))
	for i := 0; i < n; i += step {
		c := img.NRGBAAt(b.Min.X+i%b.Dx(), b.Min.Y+i/b.Dx())
		dataset = append(dataset, clusters.Coordinates{
			float64(c.R) / 255,
			float64(c.G) / 255,
			float64(c.B) / 255,
		})
	}

	workK := min(k+2, len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil {
		return nil
	}
	cands := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}
		cands = append(cands, weightedColor{col: col.Clamped(), weight: float64(len(c.Observations))})
	}
	return cands
}

// pick sorts candidates by weight and keeps the first k that are not
// near duplicates of an already picked color.
func pick(cands []weightedColor, k int) []color.NRGBA {
	const minDistance = 0.04

	slices.SortStableFunc(cands, func(a, b weightedColor) int {
		switch {
		case a.weight > b.weight:
			return -1
		case a.weight < b.weight:
			return 1
		}
		return 0
	})

	var (
		picked []colorful.Color
		out    []color.NRGBA
	)
	for _, c := range cands {
		if len(out) == k {
			break
		}
		near := slices.ContainsFunc(picked, func(p colorful.Color) bool {
			return c.col.DistanceLab(p) < minDistance
		})
		if near || math.IsNaN(c.col.R) {
			continue
		}
		picked = append(picked, c.col)
		out = append(out, toNRGBA(c.col))
	}
	return out
}
