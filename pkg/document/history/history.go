package history

import (
	"github.com/pkg/errors"
)

// DefaultLimit is the number of undo snapshots kept by default.
const DefaultLimit = 150

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History keeps canonical-text snapshots for undo and redo.
// Both stacks are ordered oldest first. It is not safe for concurrent
// use; it is owned by a single editor.
type History struct {
	undoStack []string
	redoStack []string
	limit     int
}

func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

func (h *History) Limit() int { return h.limit }

// Push records the state preceding a new edit and invalidates redo.
func (h *History) Push(snapshot string) {
	h.undoStack = h.pushBounded(h.undoStack, snapshot)
	h.redoStack = nil
}

// Undo returns the snapshot to restore and records current for redo.
func (h *History) Undo(current string) (string, error) {
	if len(h.undoStack) == 0 {
		return "", ErrNothingToUndo
	}
	snapshot := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = h.pushBounded(h.redoStack, current)
	return snapshot, nil
}

// Redo returns the snapshot to restore and records current for undo
// without invalidating the rest of the redo stack.
func (h *History) Redo(current string) (string, error) {
	if len(h.redoStack) == 0 {
		return "", ErrNothingToRedo
	}
	snapshot := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = h.pushBounded(h.undoStack, current)
	return snapshot, nil
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }

func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// UndoSnapshots returns a copy of the undo stack, oldest first.
func (h *History) UndoSnapshots() []string {
	return append([]string(nil), h.undoStack...)
}

// RedoSnapshots returns a copy of the redo stack, oldest first.
func (h *History) RedoSnapshots() []string {
	return append([]string(nil), h.redoStack...)
}

func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}

func (h *History) pushBounded(stack []string, snapshot string) []string {
	stack = append(stack, snapshot)
	if excess := len(stack) - h.limit; excess > 0 {
		stack = append(stack[:0:0], stack[excess:]...)
	}
	return stack
}
