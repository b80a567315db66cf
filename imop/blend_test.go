package imop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend_Parse(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Normal, ParseBlendMode("normal"))
	assert.Equal(Multiply, ParseBlendMode("MULTIPLY"))
	assert.Equal(Screen, ParseBlendMode(" screen "))
	assert.Equal(Overlay, ParseBlendMode("Overlay"))
	assert.Equal(Normal, ParseBlendMode("blend_mode_not_supported"))
	assert.Equal(Normal, ParseBlendMode(""))

	assert.Equal("multiply", Multiply.String())
	assert.Equal("normal", BlendMode(42).String())
}

func TestBlend_TextRoundTrip(t *testing.T) {
	assert := assert.New(t)

	type layer struct {
		Mode BlendMode `json:"blend_mode"`
	}
	b, err := json.Marshal(layer{Mode: Screen})
	assert.NoError(err)
	assert.JSONEq(`{"blend_mode":"screen"}`, string(b))

	var l layer
	assert.NoError(json.Unmarshal([]byte(`{"blend_mode":"darken"}`), &l))
	assert.Equal(Normal, l.Mode)
	assert.NoError(json.Unmarshal([]byte(`{"blend_mode":"overlay"}`), &l))
	assert.Equal(Overlay, l.Mode)
}

func TestBlend_Mix(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(0.25, Multiply.Mix(0.5, 0.5), 1e-9)
	assert.InDelta(0.75, Screen.Mix(0.5, 0.5), 1e-9)
	assert.InDelta(0.5, Overlay.Mix(0.5, 0.5), 1e-9)
	assert.InDelta(1-2*0.25*0.5, Overlay.Mix(0.75, 0.5), 1e-9)
	assert.InDelta(0.3, Normal.Mix(0.9, 0.3), 1e-9)
	assert.InDelta(0.3, BlendMode(-1).Mix(0.9, 0.3), 1e-9)
}
