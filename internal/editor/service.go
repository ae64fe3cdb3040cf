package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"timeline-editor/internal/platform/logger"
	"timeline-editor/internal/platform/metrics"
	"timeline-editor/internal/processor"
	"timeline-editor/internal/timeline"

	"github.com/google/uuid"
)

// DefaultProcessTimeout bounds a single processor call when no timeout is configured.
const DefaultProcessTimeout = 5 * time.Minute

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	ProcessTimeout time.Duration
	FrameRate      float64
}

// Service owns edit sessions: it applies edits through each session's history, persists
// histories and hands resolved keep-segments to the media processor.
type Service struct {
	repo      Repository
	histories HistoryStore
	proc      processor.Processor
	log       *slog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
	fps       float64
	now       func() time.Time
}

// NewService returns a Service. m may be nil to disable metric recording (e.g. in tests).
func NewService(repo Repository, histories HistoryStore, proc processor.Processor, log *slog.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = DefaultProcessTimeout
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	return &Service{
		repo:      repo,
		histories: histories,
		proc:      proc,
		log:       logger.WithComponent(log, "editor"),
		metrics:   m,
		timeout:   opts.ProcessTimeout,
		fps:       opts.FrameRate,
		now:       time.Now,
	}
}

// Open creates a session for media. When media.ID has a stored history it is hydrated;
// malformed stored entries are dropped and their count returned.
func (s *Service) Open(ctx context.Context, media Media) (*Session, int, error) {
	if err := media.Validate(); err != nil {
		return nil, 0, err
	}

	sess := &Session{
		ID:        SessionID(uuid.NewString()),
		Media:     media,
		History:   timeline.NewHistory(media.Duration),
		CreatedAt: s.now().UTC(),
	}

	dropped := 0
	if media.ID != "" {
		data, ok, err := s.histories.LoadHistory(ctx, media.ID)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			edits, n, err := timeline.ParseHistory(data)
			if err != nil {
				// An unreadable document is treated like a fully malformed one.
				s.log.Warn("stored history unreadable, starting empty",
					slog.String("media_id", media.ID),
					slog.String("error", err.Error()))
			} else {
				dropped = n + sess.History.SetFromExternal(edits)
			}
		}
	}

	if err := s.repo.Create(sess); err != nil {
		return nil, 0, err
	}
	if dropped > 0 {
		s.recordDropped(dropped)
	}

	logger.WithSession(s.log, string(sess.ID)).Info("session opened",
		slog.String("media_id", media.ID),
		slog.Float64("duration", media.Duration),
		slog.Int("edits", len(sess.History.Active())),
		slog.Int("dropped", dropped))
	return sess, dropped, nil
}

// Append validates e and records it on the session's history.
func (s *Service) Append(id SessionID, e timeline.Edit) (timeline.Window, error) {
	sess, err := s.session(id)
	if err != nil {
		return timeline.Window{}, err
	}
	if err := sess.History.Append(e); err != nil {
		return timeline.Window{}, err
	}
	s.recordEdit("append")
	return sess.History.Window(), nil
}

// AppendRelative converts window fractions into an edit in original-media time and appends it.
func (s *Service) AppendRelative(id SessionID, typ timeline.EditType, startFrac, endFrac float64) (timeline.Edit, timeline.Window, error) {
	sess, err := s.session(id)
	if err != nil {
		return timeline.Edit{}, timeline.Window{}, err
	}
	e, err := timeline.RelativeEdit(sess.History.Window(), sess.History.Splices(), typ, startFrac, endFrac)
	if err != nil {
		return timeline.Edit{}, timeline.Window{}, err
	}
	if err := sess.History.Append(e); err != nil {
		return timeline.Edit{}, timeline.Window{}, err
	}
	s.recordEdit("append")
	return e, sess.History.Window(), nil
}

// Undo reverts the most recent edit of the session.
func (s *Service) Undo(id SessionID) (timeline.Outcome, error) {
	sess, err := s.session(id)
	if err != nil {
		return timeline.Outcome{}, err
	}
	out := sess.History.Undo()
	if out.Applied {
		s.recordEdit("undo")
	}
	return out, nil
}

// Redo re-applies the most recently undone edit of the session.
func (s *Service) Redo(id SessionID) (timeline.Outcome, error) {
	sess, err := s.session(id)
	if err != nil {
		return timeline.Outcome{}, err
	}
	out := sess.History.Redo()
	if out.Applied {
		s.recordEdit("redo")
	}
	return out, nil
}

// Hydrate replaces the session's history with a serialized edit list. It returns how many
// entries were kept and how many were dropped as malformed.
func (s *Service) Hydrate(id SessionID, raw []byte) (kept, dropped int, err error) {
	sess, err := s.session(id)
	if err != nil {
		return 0, 0, err
	}
	edits, dropped, err := timeline.ParseHistory(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", timeline.ErrInvalidEdit, err)
	}
	dropped += sess.History.SetFromExternal(edits)
	if dropped > 0 {
		s.recordDropped(dropped)
	}
	s.recordEdit("hydrate")
	return len(sess.History.Active()), dropped, nil
}

// Save persists the session's active edits under its media ID.
func (s *Service) Save(ctx context.Context, id SessionID) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	if sess.Media.ID == "" {
		return fmt.Errorf("%w: media_id is required to save", ErrInvalidMedia)
	}
	return s.saveHistory(ctx, sess)
}

// Snapshot returns a read-only view of the session.
func (s *Service) Snapshot(id SessionID) (Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	segs := sess.History.Resolve()
	return Snapshot{
		ID:             sess.ID,
		Media:          sess.Media,
		Active:         sess.History.Active(),
		Undone:         sess.History.Undone(),
		Window:         sess.History.Window(),
		Segments:       segs,
		Empty:          len(segs) == 0,
		CanUndo:        sess.History.CanUndo(),
		CanRedo:        sess.History.CanRedo(),
		Submitting:     s.repo.IsSubmitting(id),
		LastSubmission: s.repo.LastSubmission(id),
		CreatedAt:      sess.CreatedAt,
	}, nil
}

// Segments resolves the session's active edits. An empty result is returned together
// with timeline.ErrEmptyResolution.
func (s *Service) Segments(id SessionID) ([]timeline.KeepSegment, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return timeline.ResolveChecked(sess.History.Active(), sess.History.Duration())
}

// Ruler returns n+1 ruler ticks for the session's visible window.
func (s *Service) Ruler(id SessionID, n int) ([]timeline.Tick, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return timeline.RulerTicks(sess.History.Window(), sess.History.Splices(), n), nil
}

// EDL renders the session's keep-segments as an edit decision list. fps <= 0 uses the
// service default.
func (s *Service) EDL(id SessionID, fps float64) (string, error) {
	sess, err := s.session(id)
	if err != nil {
		return "", err
	}
	if fps <= 0 {
		fps = s.fps
	}
	title := sess.Media.ID
	if title == "" {
		title = string(sess.ID)
	}
	return BuildEDL(title, sess.Media.Locator, sess.History.Resolve(), fps), nil
}

// Submit resolves the session's history and hands the keep-segments to the processor.
// An empty resolution produces a placeholder instead. Processor failures and timeouts are
// returned wrapped in ErrProcessingFailed and leave the history untouched.
func (s *Service) Submit(ctx context.Context, id SessionID) (*Submission, error) {
	sess, err := s.repo.BeginSubmit(id)
	if err != nil {
		return nil, err
	}
	var sub *Submission
	defer func() { s.repo.EndSubmit(id, sub) }()

	log := logger.WithSession(s.log, string(id))
	segs := sess.History.Resolve()

	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	var output string
	placeholder := len(segs) == 0
	if placeholder {
		log.Warn("edit history resolved to nothing, submitting placeholder",
			slog.Int("edits", len(sess.History.Active())))
		if s.metrics != nil {
			s.metrics.IncEmptyResolutions()
		}
		output, err = s.proc.Placeholder(pctx, sess.Media.Locator)
	} else {
		output, err = s.proc.Process(pctx, sess.Media.Locator, segs)
	}
	if s.metrics != nil {
		s.metrics.ObserveProcessing(s.now().Sub(started))
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncSubmissionFailures()
		}
		log.Error("processing failed",
			slog.String("locator", sess.Media.Locator),
			slog.Int("segments", len(segs)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	sub = &Submission{
		ID:          uuid.NewString(),
		SessionID:   id,
		MediaID:     sess.Media.ID,
		Output:      output,
		Segments:    segs,
		Placeholder: placeholder,
		CompletedAt: s.now().UTC(),
	}

	if sess.Media.ID != "" {
		if err := s.saveHistory(ctx, sess); err != nil {
			log.Warn("save history after submit failed", slog.String("error", err.Error()))
		}
		if err := s.histories.RecordSubmission(ctx, *sub); err != nil {
			log.Warn("record submission failed", slog.String("error", err.Error()))
		}
	}
	if s.metrics != nil {
		s.metrics.IncSubmissions()
	}

	log.Info("submission complete",
		slog.String("output", output),
		slog.Int("segments", len(segs)),
		slog.Float64("kept_seconds", timeline.TotalLength(segs)),
		slog.Bool("placeholder", placeholder))
	return sub, nil
}

// Submissions lists recorded submissions for the session's media item.
func (s *Service) Submissions(ctx context.Context, id SessionID) ([]Submission, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if sess.Media.ID == "" {
		if last := s.repo.LastSubmission(id); last != nil {
			return []Submission{*last}, nil
		}
		return nil, nil
	}
	return s.histories.ListSubmissions(ctx, sess.Media.ID)
}

// Close discards the session.
func (s *Service) Close(id SessionID) error {
	if !s.repo.Delete(id) {
		return ErrSessionNotFound
	}
	logger.WithSession(s.log, string(id)).Info("session closed")
	return nil
}

// List returns the IDs of all open sessions.
func (s *Service) List() []SessionID {
	return s.repo.ListSessionIDs()
}

// ActiveSessionCount returns the number of open sessions.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}

func (s *Service) session(id SessionID) (*Session, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) saveHistory(ctx context.Context, sess *Session) error {
	data, err := timeline.MarshalHistory(sess.History.Active())
	if err != nil {
		return err
	}
	if err := s.histories.SaveHistory(ctx, sess.Media.ID, data); err != nil {
		return err
	}
	s.log.Debug("history saved",
		slog.String("session_id", string(sess.ID)),
		slog.String("media_id", sess.Media.ID),
		slog.Int("edits", len(sess.History.Active())))
	return nil
}

func (s *Service) recordEdit(op string) {
	if s.metrics != nil {
		s.metrics.IncEdits(op)
	}
}

func (s *Service) recordDropped(n int) {
	if s.metrics != nil {
		s.metrics.AddHydrationDropped(n)
	}
	s.log.Warn("dropped malformed history entries", slog.Int("dropped", n))
}

// isEmptyResolution reports whether err only signals that nothing survived resolution.
func isEmptyResolution(err error) bool {
	return errors.Is(err, timeline.ErrEmptyResolution)
}
