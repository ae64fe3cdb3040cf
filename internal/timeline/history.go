package timeline

import (
	"sort"
	"sync"
)

// Outcome describes the visible window after an undo or redo.
type Outcome struct {
	Window Window `json:"window"`
	// Reset is true when the window fell back to the full media duration.
	Reset bool `json:"reset"`
	// Applied is false when the call was a no-op.
	Applied bool `json:"applied"`
}

// History is the undo/redo log of edits for one media item.
// All methods are safe for concurrent use; mutations are serialized.
type History struct {
	mu       sync.Mutex
	duration float64
	active   []Edit
	undone   []Edit // most recently undone last
	window   Window
}

// NewHistory returns an empty history for media of the given duration.
func NewHistory(duration float64) *History {
	return &History{
		duration: duration,
		window:   FullWindow(duration),
	}
}

// Append validates e and pushes it onto the active log, clearing the redo stack.
// An invalid edit, or one ending past the media, leaves the history untouched.
func (h *History) Append(e Edit) error {
	if err := e.ValidateWithin(h.duration); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.active = append(h.active, e)
	h.clearRedoLocked()
	h.window = h.windowFromActiveLocked()
	return nil
}

// Undo moves the most recent edit to the redo stack. On an empty history it is a no-op
// that reports a reset.
func (h *History) Undo() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.active) == 0 {
		return Outcome{Window: FullWindow(h.duration), Reset: true}
	}

	last := h.active[len(h.active)-1]
	h.active = h.active[:len(h.active)-1]
	h.undone = append(h.undone, last)

	// Undoing past a splice does not rebuild the pre-splice window; it falls back to full.
	h.window = h.windowFromActiveLocked()
	return Outcome{
		Window:  h.window,
		Reset:   !h.lastIsTrimLocked(),
		Applied: true,
	}
}

// Redo re-applies the most recently undone edit. Redoing a splice leaves the window as is.
func (h *History) Redo() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undone) == 0 {
		return Outcome{Window: h.window}
	}

	e := h.undone[len(h.undone)-1]
	h.undone = h.undone[:len(h.undone)-1]
	h.active = append(h.active, e)

	if e.Type == Trim {
		h.window = Window{Start: e.Start, End: e.End}
	}
	return Outcome{Window: h.window, Applied: true}
}

// SetFromExternal replaces the active log with edits loaded from storage and clears the
// redo stack. Entries that fail validation or end past the media are dropped; the number
// dropped is returned.
func (h *History) SetFromExternal(edits []Edit) int {
	kept := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.ValidateWithin(h.duration) != nil {
			continue
		}
		kept = append(kept, e)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.active = kept
	h.clearRedoLocked()
	h.window = h.windowFromActiveLocked()
	return len(edits) - len(kept)
}

// Active returns a copy of the applied edits in chronological order.
func (h *History) Active() []Edit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Edit(nil), h.active...)
}

// Undone returns a copy of the redo stack, most recently undone last.
func (h *History) Undone() []Edit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Edit(nil), h.undone...)
}

// Window returns the current visible window.
func (h *History) Window() Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.window
}

// Duration returns the full media duration.
func (h *History) Duration() float64 {
	return h.duration
}

// CanUndo returns true if there are edits that can be undone.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active) > 0
}

// CanRedo returns true if there are edits that can be redone.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undone) > 0
}

// Splices returns the active splices sorted ascending by start.
func (h *History) Splices() []Edit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return SortedSplices(h.active)
}

// Resolve runs the segment resolver over the active log.
func (h *History) Resolve() []KeepSegment {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Resolve(h.active, h.duration)
}

// clearRedoLocked empties the redo stack. Caller must hold h.mu.
func (h *History) clearRedoLocked() {
	h.undone = h.undone[:0]
}

// windowFromActiveLocked derives the visible window from the last active edit.
// Caller must hold h.mu.
func (h *History) windowFromActiveLocked() Window {
	if h.lastIsTrimLocked() {
		last := h.active[len(h.active)-1]
		return Window{Start: last.Start, End: last.End}
	}
	return FullWindow(h.duration)
}

func (h *History) lastIsTrimLocked() bool {
	return len(h.active) > 0 && h.active[len(h.active)-1].Type == Trim
}

// SortedSplices returns the splices in edits ordered by start.
func SortedSplices(edits []Edit) []Edit {
	var out []Edit
	for _, e := range edits {
		if e.Type == Splice {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
