package timeline

import "fmt"

// SeekEpsilon is added to a splice end when playback is pushed past a removed region.
const SeekEpsilon = 0.001

// DisplayLabel re-inflates a ruler position into the timestamp it had before any splice
// removed content. splices must be sorted by start.
func DisplayLabel(t float64, splices []Edit) float64 {
	for _, s := range splices {
		if t >= s.Start {
			t += s.End - s.Start
		}
	}
	return t
}

// Adjustment is the result of mapping a live playback time through the splices.
type Adjustment struct {
	// Adjusted is the playback time with removed regions behind it subtracted.
	Adjusted float64 `json:"adjusted"`
	// Seek is set when current fell inside a splice and playback must jump to SeekTo.
	Seek   bool    `json:"seek"`
	SeekTo float64 `json:"seek_to,omitempty"`
	// Paused is set by Playhead.Tick when it paused the player.
	Paused bool `json:"paused"`
}

// AdjustPlayback maps a playback time reported by the media element to the effective time
// used for pause and seek decisions. Inside a splice the adjusted time is clamped to the
// splice start. splices must be sorted by start.
func AdjustPlayback(current float64, splices []Edit) Adjustment {
	adj := Adjustment{Adjusted: current}
	for _, s := range splices {
		if current >= s.End {
			adj.Adjusted -= s.End - s.Start
			continue
		}
		if current >= s.Start {
			adj.Seek = true
			adj.SeekTo = s.End + SeekEpsilon
			adj.Adjusted = s.Start
			break
		}
	}
	return adj
}

// windowSplices clips splices to w and merges overlapping ones, so each removed second
// inside the window is counted once. splices must be sorted by start.
func windowSplices(w Window, splices []Edit) []Edit {
	var out []Edit
	for _, s := range splices {
		start, end := max(s.Start, w.Start), min(s.End, w.End)
		if start >= end {
			continue
		}
		if n := len(out); n > 0 && start <= out[n-1].End {
			out[n-1].End = max(out[n-1].End, end)
			continue
		}
		out = append(out, Edit{Start: start, End: end, Type: Splice})
	}
	return out
}

// EditedLength is the length of w once the splices inside it are removed.
func EditedLength(w Window, splices []Edit) float64 {
	l := w.Len()
	for _, s := range windowSplices(w, splices) {
		l -= s.End - s.Start
	}
	return max(l, 0)
}

// OriginalAt maps an offset along the edited ruler of w back to original-media time.
// The result never leaves w. splices must be sorted by start.
func OriginalAt(w Window, splices []Edit, offset float64) float64 {
	return min(DisplayLabel(w.Start+offset, windowSplices(w, splices)), w.End)
}

// Tick is one labelled mark on the timeline ruler. Position is the offset along the edited
// ruler from the window start; Label is the original-media time shown there.
type Tick struct {
	Position float64 `json:"position"`
	Label    float64 `json:"label"`
}

// RulerTicks spreads n+1 ticks evenly across the edited length of w and labels each with
// its original time.
func RulerTicks(w Window, splices []Edit, n int) []Tick {
	if n <= 0 {
		n = 1
	}
	length := EditedLength(w, splices)
	step := length / float64(n)
	ticks := make([]Tick, 0, n+1)
	for i := 0; i <= n; i++ {
		pos := step * float64(i)
		if i == n {
			pos = length
		}
		ticks = append(ticks, Tick{Position: pos, Label: OriginalAt(w, splices, pos)})
	}
	return ticks
}

// RelativeEdit builds an edit from fractions (0..1) of the visible window as the ruler
// shows it. The fractions are taken of the edited length and mapped back through the
// splices the same way ruler labels are, so the stored edit is always in original-media
// time and inside w.
func RelativeEdit(w Window, splices []Edit, typ EditType, startFrac, endFrac float64) (Edit, error) {
	if !finite(startFrac) || !finite(endFrac) || startFrac < 0 || endFrac > 1 || startFrac >= endFrac {
		return Edit{}, fmt.Errorf("%w: fractions %v..%v outside window", ErrInvalidEdit, startFrac, endFrac)
	}
	length := EditedLength(w, splices)
	e := Edit{
		Start: OriginalAt(w, splices, startFrac*length),
		End:   OriginalAt(w, splices, endFrac*length),
		Type:  typ,
	}
	if err := e.Validate(); err != nil {
		return Edit{}, err
	}
	return e, nil
}

// Player is the playback element the playhead drives.
type Player interface {
	CurrentTime() float64
	Seek(t float64)
	Paused() bool
	Pause()
}

// Playhead keeps a player inside the visible window and skips spliced regions live.
type Playhead struct {
	Window  Window
	Splices []Edit // sorted by start
}

// NewPlayhead returns a playhead for the current state of h.
func NewPlayhead(h *History) Playhead {
	return Playhead{Window: h.Window(), Splices: h.Splices()}
}

// Tick inspects the player once. Playback before the window start is moved up to it and
// playback inside a splice jumps past it. The player is paused (without resetting) once the
// adjusted time reaches the end of the window.
func (p Playhead) Tick(pl Player) Adjustment {
	current := pl.CurrentTime()
	clamped := current < p.Window.Start
	if clamped {
		current = p.Window.Start
	}
	adj := AdjustPlayback(current, p.Splices)
	switch {
	case adj.Seek:
		pl.Seek(adj.SeekTo)
	case clamped:
		pl.Seek(current)
		adj.Seek = true
		adj.SeekTo = current
	}
	if adj.Adjusted >= p.Window.End && !pl.Paused() {
		pl.Pause()
		adj.Paused = true
	}
	return adj
}

// Rewind seeks the player to the start of the window.
func (p Playhead) Rewind(pl Player) {
	pl.Seek(p.Window.Start)
}
