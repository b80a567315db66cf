package project

import (
	"image"

	"github.com/openpixmod/pixmod"
)

// Layer builds the pipeline layer for this state over src. The selection
// is shared by every layer of a project and may be nil.
func (l *LayerState) Layer(src *image.NRGBA, sel *pixmod.Selection) (*pixmod.Layer, error) {
	layer := &pixmod.Layer{
		Name:   l.Name,
		Source: src,
		Hidden: !l.Visible,
		Blend:  l.BlendMode,
		Transform: pixmod.Transform{
			Scale:    l.ImgScale,
			OffsetX:  l.ImgOffX,
			OffsetY:  l.ImgOffY,
			Rotation: l.RotationDeg,
		},
		Key: pixmod.KeyOptions{
			Palette:   l.Entries(),
			Mode:      l.ColorKeyMode,
			Tolerance: l.Tolerance,
			HueTol:    l.HSVHTol,
			SatTol:    l.HSVSTol,
			ValTol:    l.HSVVTol,
		},
		Refine: pixmod.RefineOptions{
			GrowShrink:    l.MaskGrowShrink,
			FeatherRadius: l.MaskFeatherRadius,
			MinIslandSize: l.RemoveIslandsMinSize,
		},
		Adjust: pixmod.Adjustments{
			Brightness:  l.Brightness,
			Contrast:    l.Contrast,
			Saturation:  l.Saturation,
			Gamma:       l.Gamma,
			Vibrance:    l.Vibrance,
			Temperature: l.Temperature,
		},
		Opacity:   l.Opacity,
		Selection: sel,
	}

	pm, err := l.PaintMask()
	if err != nil {
		return nil, err
	}
	layer.PaintMask = pm
	return layer, nil
}

// SelectionRect returns the shared selection rectangle.
func (s *ProjectState) SelectionRect() image.Rectangle {
	if s.SelW <= 0 || s.SelH <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(s.SelX, s.SelY, s.SelX+s.SelW, s.SelY+s.SelH)
}

// SetSelectionRect stores r as the shared selection rectangle.
func (s *ProjectState) SetSelectionRect(r image.Rectangle) {
	r = r.Canon()
	s.SelX, s.SelY = r.Min.X, r.Min.Y
	s.SelW, s.SelH = r.Dx(), r.Dy()
}

// Selection returns the pipeline selection, or nil when selection is
// disabled. mask is an optional explicit region from the selection tools.
func (s *ProjectState) Selection(mask *pixmod.Mask) *pixmod.Selection {
	if !s.SelectionEnabled {
		return nil
	}
	return &pixmod.Selection{
		Rect:   s.SelectionRect(),
		Mask:   mask,
		Invert: s.SelectionInvert,
	}
}

// RenderOptions returns the resampling options of the project.
func (s *ProjectState) RenderOptions() pixmod.RenderOptions {
	return pixmod.RenderOptions{
		HighQuality:     s.HighQuality,
		NearestNeighbor: s.NearestNeighbor,
	}
}

// CanvasSize returns the output canvas size.
func (s *ProjectState) CanvasSize() image.Point {
	return image.Pt(s.OutW, s.OutH)
}

// Render composites every layer of the project. sources maps each layer
// index to its decoded source image; layers without a source are skipped.
func (s *ProjectState) Render(sources []*image.NRGBA, mask *pixmod.Mask) (*image.NRGBA, error) {
	s.ensureLayers()
	sel := s.Selection(mask)

	layers := make([]*pixmod.Layer, 0, len(s.Layers))
	for i, ls := range s.Layers {
		var src *image.NRGBA
		if i < len(sources) {
			src = sources[i]
		}
		if src == nil {
			continue
		}
		l, err := ls.Layer(src, sel)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return pixmod.Composite(layers, s.CanvasSize(), s.RenderOptions())
}
