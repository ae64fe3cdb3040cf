package editor

import (
	"fmt"
	"math"
	"time"

	"timeline-editor/internal/timeline"
)

// SessionID uniquely identifies an open edit session.
type SessionID string

// Media locates the source being edited.
type Media struct {
	ID       string  `json:"media_id"`
	Locator  string  `json:"locator"`
	Duration float64 `json:"duration"`
}

// Validate checks that the media can seed a history.
func (m Media) Validate() error {
	if m.Locator == "" {
		return fmt.Errorf("%w: locator is required", ErrInvalidMedia)
	}
	if math.IsNaN(m.Duration) || math.IsInf(m.Duration, 0) || m.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of seconds", ErrInvalidMedia)
	}
	return nil
}

// Session is the in-memory state of one user editing one media item.
type Session struct {
	ID        SessionID
	Media     Media
	History   *timeline.History
	CreatedAt time.Time

	// Managed by the repository under its lock.
	Submitting     bool
	LastSubmission *Submission
}

// Submission records one completed hand-off to the media processor.
type Submission struct {
	ID          string                 `json:"id"`
	SessionID   SessionID              `json:"session_id"`
	MediaID     string                 `json:"media_id"`
	Output      string                 `json:"output"`
	Segments    []timeline.KeepSegment `json:"segments"`
	Placeholder bool                   `json:"placeholder"`
	CompletedAt time.Time              `json:"completed_at"`
}

// Snapshot is a read-only view of a session returned to API clients.
type Snapshot struct {
	ID             SessionID              `json:"id"`
	Media          Media                  `json:"media"`
	Active         []timeline.Edit        `json:"active"`
	Undone         []timeline.Edit        `json:"undone"`
	Window         timeline.Window        `json:"window"`
	Segments       []timeline.KeepSegment `json:"segments"`
	Empty          bool                   `json:"empty"`
	CanUndo        bool                   `json:"can_undo"`
	CanRedo        bool                   `json:"can_redo"`
	Submitting     bool                   `json:"submitting"`
	LastSubmission *Submission            `json:"last_submission,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}
