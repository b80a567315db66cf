// Package project holds the editing session state: the ordered layer stack
// with its active layer, the shared selection, the output canvas settings
// and the brush workspace. It converts that state into pipeline layers and
// persists it as versioned JSON project files.
package project

import (
	"encoding/json"
	"fmt"
	"image/color"

	"github.com/openpixmod/pixmod"
	"github.com/openpixmod/pixmod/imop"
)

// PaletteColor is a key color as stored in project files.
type PaletteColor struct {
	RGB     [3]int `json:"rgb"`
	Enabled bool   `json:"enabled"`
}

// Entry converts the stored color into a pipeline palette entry.
func (p PaletteColor) Entry() pixmod.PaletteEntry {
	return pixmod.PaletteEntry{
		Color: color.NRGBA{
			R: uint8(clampChannel(p.RGB[0])),
			G: uint8(clampChannel(p.RGB[1])),
			B: uint8(clampChannel(p.RGB[2])),
			A: 255,
		},
		Enabled: p.Enabled,
	}
}

// FromEntry converts a pipeline palette entry into its stored form.
func FromEntry(e pixmod.PaletteEntry) PaletteColor {
	return PaletteColor{RGB: [3]int{int(e.Color.R), int(e.Color.G), int(e.Color.B)}, Enabled: e.Enabled}
}

func clampChannel(v int) int {
	return max(0, min(255, v))
}

// UnmarshalJSON decodes a palette color, defaulting Enabled to true.
func (p *PaletteColor) UnmarshalJSON(data []byte) error {
	var raw struct {
		RGB     []int `json:"rgb"`
		Enabled *bool `json:"enabled"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.RGB) != 3 {
		return fmt.Errorf("palette color: expected 3 channels, got %d", len(raw.RGB))
	}
	*p = PaletteColor{RGB: [3]int{raw.RGB[0], raw.RGB[1], raw.RGB[2]}, Enabled: true}
	if raw.Enabled != nil {
		p.Enabled = *raw.Enabled
	}
	return nil
}

// BrushPreset describes a saved paint brush of the alpha painting tool.
type BrushPreset struct {
	PresetID      string         `json:"preset_id"`
	Name          string         `json:"name"`
	ToolMode      string         `json:"tool_mode"`
	Size          float64        `json:"size"`
	Hardness      float64        `json:"hardness"`
	Spacing       float64        `json:"spacing"`
	Flow          float64        `json:"flow"`
	Opacity       float64        `json:"opacity"`
	JitterSize    float64        `json:"jitter_size"`
	JitterAngle   float64        `json:"jitter_angle"`
	JitterScatter float64        `json:"jitter_scatter"`
	BlendMode     imop.BlendMode `json:"blend_mode"`
	SymmetryX     bool           `json:"symmetry_x"`
	SymmetryY     bool           `json:"symmetry_y"`
}

// NewBrushPreset returns a preset with the default brush dynamics.
func NewBrushPreset(id, name string) BrushPreset {
	return BrushPreset{
		PresetID: id,
		Name:     name,
		ToolMode: "paint",
		Size:     24,
		Hardness: 0.8,
		Spacing:  0.12,
		Flow:     1,
		Opacity:  1,
	}
}

func (b *BrushPreset) UnmarshalJSON(data []byte) error {
	type plain BrushPreset
	p := plain(NewBrushPreset("", ""))
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BrushPreset(p)
	return nil
}

// LayerState holds every persisted setting of one layer.
type LayerState struct {
	Name      string         `json:"name"`
	SrcPath   string         `json:"src_path,omitempty"`
	Visible   bool           `json:"visible"`
	BlendMode imop.BlendMode `json:"blend_mode"`

	ImgScale    float64 `json:"img_scale"`
	ImgOffX     float64 `json:"img_off_x"`
	ImgOffY     float64 `json:"img_off_y"`
	RotationDeg int     `json:"rotation_deg"`

	Tolerance            int            `json:"tolerance"`
	ColorKeyMode         pixmod.KeyMode `json:"color_key_mode"`
	HSVHTol              int            `json:"hsv_h_tol"`
	HSVSTol              int            `json:"hsv_s_tol"`
	HSVVTol              int            `json:"hsv_v_tol"`
	Palette              []PaletteColor `json:"palette"`
	MaskFeatherRadius    int            `json:"mask_feather_radius"`
	MaskGrowShrink       int            `json:"mask_grow_shrink"`
	RemoveIslandsMinSize int            `json:"remove_islands_min_size"`

	Opacity float64 `json:"opacity"`

	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Gamma       float64 `json:"gamma"`
	Vibrance    float64 `json:"vibrance"`
	Temperature int     `json:"temperature"`

	// AlphaPaintMaskData is a base64 encoded grayscale PNG the size of the
	// source image. Empty means fully opaque.
	AlphaPaintMaskData string `json:"alpha_paint_mask_data,omitempty"`
}

// NewLayerState returns a visible layer with default settings.
func NewLayerState(name string) *LayerState {
	return &LayerState{
		Name:       name,
		Visible:    true,
		BlendMode:  imop.Normal,
		ImgScale:   1,
		Tolerance:  30,
		HSVHTol:    12,
		HSVSTol:    40,
		HSVVTol:    40,
		Palette:    []PaletteColor{},
		Opacity:    1,
		Brightness: 1,
		Contrast:   1,
		Saturation: 1,
		Gamma:      1,
		Vibrance:   1,
	}
}

// UnmarshalJSON decodes a layer over the default settings. Malformed
// palette items are dropped.
func (l *LayerState) UnmarshalJSON(data []byte) error {
	type plain LayerState
	aux := struct {
		*plain
		Palette []json.RawMessage `json:"palette"`
	}{plain: (*plain)(NewLayerState("Layer 1"))}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	palette := make([]PaletteColor, 0, len(aux.Palette))
	for _, raw := range aux.Palette {
		var p PaletteColor
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		palette = append(palette, p)
	}
	aux.plain.Palette = palette
	*l = LayerState(*aux.plain)
	return nil
}

// EnabledPalette returns the enabled key colors of the layer.
func (l *LayerState) EnabledPalette() []color.NRGBA {
	return pixmod.EnabledColors(l.Entries())
}

// Entries returns the palette as pipeline entries.
func (l *LayerState) Entries() []pixmod.PaletteEntry {
	entries := make([]pixmod.PaletteEntry, len(l.Palette))
	for i, p := range l.Palette {
		entries[i] = p.Entry()
	}
	return entries
}

// SetEntries replaces the palette.
func (l *LayerState) SetEntries(entries []pixmod.PaletteEntry) {
	l.Palette = make([]PaletteColor, len(entries))
	for i, e := range entries {
		l.Palette[i] = FromEntry(e)
	}
}

// Clone returns a deep copy of the layer state.
func (l *LayerState) Clone() *LayerState {
	c := *l
	c.Palette = append([]PaletteColor{}, l.Palette...)
	return &c
}

// ProjectState is the whole editing session.
type ProjectState struct {
	OutW int `json:"out_w"`
	OutH int `json:"out_h"`

	HighQuality     bool `json:"high_quality_resample"`
	NearestNeighbor bool `json:"nearest_neighbor"`
	ShowPixelGrid   bool `json:"show_pixel_grid"`

	SelectionEnabled bool `json:"selection_enabled"`
	SelectionInvert  bool `json:"selection_invert"`
	SelX             int  `json:"sel_x"`
	SelY             int  `json:"sel_y"`
	SelW             int  `json:"sel_w"`
	SelH             int  `json:"sel_h"`

	Layers           []*LayerState `json:"layers"`
	ActiveLayerIndex int           `json:"active_layer_index"`

	BrushEngineVersion int           `json:"brush_engine_version"`
	ActiveBrushID      string        `json:"active_brush_id"`
	CustomBrushPresets []BrushPreset `json:"custom_brush_presets"`
}

// New returns a project with a single default layer.
func New() *ProjectState {
	return &ProjectState{
		OutW:               512,
		OutH:               512,
		HighQuality:        true,
		Layers:             []*LayerState{NewLayerState("Layer 1")},
		BrushEngineVersion: 1,
		ActiveBrushID:      "soft_round",
		CustomBrushPresets: []BrushPreset{},
	}
}

func (s *ProjectState) UnmarshalJSON(data []byte) error {
	type plain ProjectState
	p := plain(*New())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = ProjectState(p)
	s.ensureLayers()
	return nil
}

// ensureLayers guarantees at least one layer and a valid active index.
// It only writes when something needs fixing, so a valid state can be
// read from several goroutines.
func (s *ProjectState) ensureLayers() {
	if s.layersValid() {
		return
	}
	layers := s.Layers[:0]
	for _, l := range s.Layers {
		if l != nil {
			layers = append(layers, l)
		}
	}
	s.Layers = layers
	if len(s.Layers) == 0 {
		s.Layers = []*LayerState{NewLayerState("Layer 1")}
	}
	s.ActiveLayerIndex = max(0, min(s.ActiveLayerIndex, len(s.Layers)-1))
}

func (s *ProjectState) layersValid() bool {
	if s.ActiveLayerIndex < 0 || s.ActiveLayerIndex >= len(s.Layers) {
		return false
	}
	for _, l := range s.Layers {
		if l == nil {
			return false
		}
	}
	return true
}

// ActiveLayer returns the layer the flat accessors operate on.
func (s *ProjectState) ActiveLayer() *LayerState {
	s.ensureLayers()
	return s.Layers[s.ActiveLayerIndex]
}

// EnabledPalette returns the enabled key colors of the active layer.
func (s *ProjectState) EnabledPalette() []color.NRGBA {
	return s.ActiveLayer().EnabledPalette()
}

// SetActiveLayer selects the active layer, clamping the index.
func (s *ProjectState) SetActiveLayer(i int) {
	s.ActiveLayerIndex = i
	s.ensureLayers()
}

// AddLayer appends l above the existing layers and makes it active.
// A nil layer adds a default one.
func (s *ProjectState) AddLayer(l *LayerState) *LayerState {
	s.ensureLayers()
	if l == nil {
		l = NewLayerState(fmt.Sprintf("Layer %d", len(s.Layers)+1))
	}
	s.Layers = append(s.Layers, l)
	s.ActiveLayerIndex = len(s.Layers) - 1
	return l
}

// RemoveLayer deletes the layer at i. The last remaining layer is reset to
// defaults instead of being removed.
func (s *ProjectState) RemoveLayer(i int) {
	s.ensureLayers()
	if i < 0 || i >= len(s.Layers) {
		return
	}
	s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
	if i < s.ActiveLayerIndex || s.ActiveLayerIndex >= len(s.Layers) {
		s.ActiveLayerIndex--
	}
	s.ensureLayers()
}

// MoveLayer moves the layer at from to position to, keeping the same
// layer active.
func (s *ProjectState) MoveLayer(from, to int) {
	s.ensureLayers()
	n := len(s.Layers)
	if from < 0 || from >= n {
		return
	}
	to = max(0, min(to, n-1))
	if from == to {
		return
	}
	active := s.Layers[s.ActiveLayerIndex]
	l := s.Layers[from]
	s.Layers = append(s.Layers[:from], s.Layers[from+1:]...)
	s.Layers = append(s.Layers[:to], append([]*LayerState{l}, s.Layers[to:]...)...)
	for i, cur := range s.Layers {
		if cur == active {
			s.ActiveLayerIndex = i
			break
		}
	}
}

// Clone returns a deep copy of the project state.
func (s *ProjectState) Clone() *ProjectState {
	c := *s
	c.Layers = make([]*LayerState, len(s.Layers))
	for i, l := range s.Layers {
		if l != nil {
			c.Layers[i] = l.Clone()
		}
	}
	c.CustomBrushPresets = append([]BrushPreset{}, s.CustomBrushPresets...)
	return &c
}
