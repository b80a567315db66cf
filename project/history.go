package project

// History keeps snapshots of a project for undo and redo.
type History struct {
	undo  []*ProjectState
	redo  []*ProjectState
	limit int
}

// NewHistory returns a history keeping at most limit undo steps.
// A non-positive limit keeps 100 steps.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{limit: limit}
}

// Push records a snapshot of s taken before a change. It clears the redo
// stack.
func (h *History) Push(s *ProjectState) {
	h.undo = append(h.undo, s.Clone())
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
}

// Undo returns the previous snapshot, recording current for Redo.
// The boolean is false when there is nothing to undo.
func (h *History) Undo(current *ProjectState) (*ProjectState, bool) {
	if len(h.undo) == 0 {
		return current, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current.Clone())
	return prev.Clone(), true
}

// Redo reapplies the last undone snapshot, recording current for Undo.
func (h *History) Redo(current *ProjectState) (*ProjectState, bool) {
	if len(h.redo) == 0 {
		return current, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current.Clone())
	return next.Clone(), true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
