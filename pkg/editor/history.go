package editor

import (
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tree"
)

// snapshot is a copy of the undoable state. Node trees are shared since
// they are never mutated in place. Selection and master edit are not part of it.
type snapshot struct {
	page      []domain.Node
	templates []domain.Template
}

type history struct {
	limit int
	undo  []snapshot
	redo  []snapshot
}

func newHistory(limit int) *history {
	if limit < 0 {
		limit = 0
	}
	return &history{limit: limit}
}

func (h *history) push(s snapshot) {
	if h.limit == 0 {
		return
	}
	h.undo = append(h.undo, s)
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
}

func (h *history) clear() {
	h.undo = nil
	h.redo = nil
}

func (e *Editor) snapshot() snapshot {
	return snapshot{
		page:      e.page,
		templates: e.templates.List(),
	}
}

// restore puts s back. Master edit is left when its template no longer exists
// and the selection is dropped when it no longer resolves in the active scope.
func (e *Editor) restore(s snapshot) {
	e.page = s.page
	e.templates.Reset(s.templates)

	if e.editing != "" {
		if _, ok := e.templates.Get(e.editing); !ok {
			left := e.editing
			e.editing = ""
			e.emitScope(left, false)
		}
	}
	if e.selected != "" && !tree.CheckCollision(e.selected, e.activeScope()) {
		e.selected = ""
	}
}

// CanUndo reports whether Undo has anything to restore.
func (e *Editor) CanUndo() bool { return len(e.history.undo) > 0 }

// CanRedo reports whether Redo has anything to restore.
func (e *Editor) CanRedo() bool { return len(e.history.redo) > 0 }

// Undo reverts the last committed change. It returns false when there is none.
func (e *Editor) Undo() bool {
	h := e.history
	if len(h.undo) == 0 {
		return false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e.snapshot())
	e.restore(prev)
	e.emit("undo", "", true, nil)
	return true
}

// Redo re-applies the last undone change. It returns false when there is none.
func (e *Editor) Redo() bool {
	h := e.history
	if len(h.redo) == 0 {
		return false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e.snapshot())
	e.restore(next)
	e.emit("redo", "", true, nil)
	return true
}
