package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(2)
	s := New()
	assert.False(h.CanUndo())

	_, ok := h.Undo(s)
	assert.False(ok)

	h.Push(s)
	s.OutW = 100
	h.Push(s)
	s.OutW = 200
	h.Push(s)
	s.OutW = 300

	s, ok = h.Undo(s)
	assert.True(ok)
	assert.Equal(200, s.OutW)
	s, ok = h.Undo(s)
	assert.True(ok)
	assert.Equal(100, s.OutW)
	_, ok = h.Undo(s)
	assert.False(ok, "history is capped at two steps")

	s, ok = h.Redo(s)
	assert.True(ok)
	assert.Equal(200, s.OutW)
	s, ok = h.Redo(s)
	assert.True(ok)
	assert.Equal(300, s.OutW)
	assert.False(h.CanRedo())

	h.Push(s)
	s.ActiveLayer().Name = "edited"
	prev, _ := h.Undo(s)
	assert.Equal("Layer 1", prev.ActiveLayer().Name)
}
