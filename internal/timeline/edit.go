// Package timeline resolves trim and splice edit logs into keep-segments and maps
// playback positions across spliced regions.
package timeline

import (
	"errors"
	"fmt"
	"math"
)

// EditType distinguishes re-framing edits from deletions.
type EditType string

const (
	// Trim narrows the visible window to a sub-range of the media.
	Trim EditType = "trim"
	// Splice removes a region; later content shifts left to close the gap.
	Splice EditType = "splice"
)

// ErrInvalidEdit is returned when an edit has a non-finite, negative or inverted range,
// or an unknown type.
var ErrInvalidEdit = errors.New("invalid edit")

// Edit is a single trim or splice in original-media seconds.
type Edit struct {
	Start float64  `json:"start" yaml:"start"`
	End   float64  `json:"end" yaml:"end"`
	Type  EditType `json:"type" yaml:"type"`
}

// Validate reports whether e can be appended to a History.
func (e Edit) Validate() error {
	if e.Type != Trim && e.Type != Splice {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEdit, e.Type)
	}
	if !finite(e.Start) || !finite(e.End) {
		return fmt.Errorf("%w: non-finite range", ErrInvalidEdit)
	}
	if e.Start < 0 || e.End < 0 {
		return fmt.Errorf("%w: negative time", ErrInvalidEdit)
	}
	if e.Start >= e.End {
		return fmt.Errorf("%w: start %.3f not before end %.3f", ErrInvalidEdit, e.Start, e.End)
	}
	return nil
}

// ValidateWithin is Validate plus a check that e ends inside media of the given duration.
func (e Edit) ValidateWithin(duration float64) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.End > duration {
		return fmt.Errorf("%w: end %.3f past media duration %.3f", ErrInvalidEdit, e.End, duration)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Window is the range the user currently sees and scrubs, in original-media time.
type Window struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// FullWindow covers the whole media.
func FullWindow(duration float64) Window {
	return Window{Start: 0, End: duration}
}

// Len returns the window length in seconds.
func (w Window) Len() float64 {
	return w.End - w.Start
}

// KeepSegment is a region of original-media time retained in the output.
type KeepSegment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Len returns the segment length in seconds.
func (k KeepSegment) Len() float64 {
	return k.End - k.Start
}

// TotalLength sums the lengths of segs.
func TotalLength(segs []KeepSegment) float64 {
	total := 0.0
	for _, s := range segs {
		total += s.Len()
	}
	return total
}
