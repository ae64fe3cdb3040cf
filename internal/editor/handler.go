package editor

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"timeline-editor/internal/timeline"

	"github.com/go-chi/chi/v5"
)

// DefaultRulerTicks is the tick count used when ?ticks is absent and no other default
// was configured.
const DefaultRulerTicks = 10

const maxHistoryBody = 1 << 20

// Handler exposes edit session HTTP endpoints using go-chi.
// Request counts and latencies come from the metrics middleware; domain counters are
// recorded by the Service.
type Handler struct {
	svc        *Service
	log        *slog.Logger
	rulerTicks int
}

// NewHandler returns a Handler that uses the given Service and Logger.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log, rulerTicks: DefaultRulerTicks}
}

// WithRulerTicks sets the tick count used when ?ticks is absent. n <= 0 keeps the current value.
func (h *Handler) WithRulerTicks(n int) *Handler {
	if n > 0 {
		h.rulerTicks = n
	}
	return h
}

// Routes mounts all session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.OpenSession)
		r.Get("/", h.ListSessions)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)
			r.Post("/edits", h.AppendEdit)
			r.Post("/edits/relative", h.AppendRelative)
			r.Post("/undo", h.Undo)
			r.Post("/redo", h.Redo)
			r.Put("/history", h.ReplaceHistory)
			r.Post("/save", h.Save)
			r.Get("/segments", h.GetSegments)
			r.Get("/ruler", h.GetRuler)
			r.Get("/edl", h.GetEDL)
			r.Post("/submit", h.Submit)
			r.Get("/submissions", h.ListSubmissions)
		})
	})
}

type openResponse struct {
	Snapshot
	Dropped int `json:"dropped"`
}

// OpenSession handles POST /sessions.
// Body: { "media_id": "m1", "locator": "/media/m1.mp4", "duration": 120.5 }.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var media Media
	if err := json.NewDecoder(r.Body).Decode(&media); err != nil {
		h.log.Debug("invalid media body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, dropped, err := h.svc.Open(r.Context(), media)
	if err != nil {
		h.fail(w, "open session failed", "", err)
		return
	}
	snap, err := h.svc.Snapshot(sess.ID)
	if err != nil {
		h.fail(w, "snapshot failed", string(sess.ID), err)
		return
	}
	writeJSON(w, http.StatusCreated, openResponse{Snapshot: snap, Dropped: dropped})
}

// ListSessions handles GET /sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.svc.List()
	if ids == nil {
		ids = []SessionID{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	snap, err := h.svc.Snapshot(id)
	if err != nil {
		h.fail(w, "get session failed", string(id), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseSession handles DELETE /sessions/{session_id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if err := h.svc.Close(id); err != nil {
		h.fail(w, "close session failed", string(id), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type windowResponse struct {
	Edit   *timeline.Edit  `json:"edit,omitempty"`
	Window timeline.Window `json:"window"`
}

// AppendEdit handles POST /sessions/{session_id}/edits.
// Body: { "start": 10, "end": 20, "type": "splice" } in original-media seconds.
func (h *Handler) AppendEdit(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	var e timeline.Edit
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	win, err := h.svc.Append(id, e)
	if err != nil {
		h.fail(w, "append edit failed", string(id), err)
		return
	}
	h.log.Debug("edit appended",
		slog.String("session_id", string(id)),
		slog.String("type", string(e.Type)),
		slog.Float64("start", e.Start),
		slog.Float64("end", e.End))
	writeJSON(w, http.StatusCreated, windowResponse{Edit: &e, Window: win})
}

type relativeRequest struct {
	Type      timeline.EditType `json:"type"`
	StartFrac float64           `json:"start_frac"`
	EndFrac   float64           `json:"end_frac"`
}

// AppendRelative handles POST /sessions/{session_id}/edits/relative.
// Body: { "type": "trim", "start_frac": 0.25, "end_frac": 0.75 } relative to the visible window.
func (h *Handler) AppendRelative(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	var req relativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	e, win, err := h.svc.AppendRelative(id, req.Type, req.StartFrac, req.EndFrac)
	if err != nil {
		h.fail(w, "append relative edit failed", string(id), err)
		return
	}
	writeJSON(w, http.StatusCreated, windowResponse{Edit: &e, Window: win})
}

// Undo handles POST /sessions/{session_id}/undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	out, err := h.svc.Undo(id)
	if err != nil {
		h.fail(w, "undo failed", string(id), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Redo handles POST /sessions/{session_id}/redo.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	out, err := h.svc.Redo(id)
	if err != nil {
		h.fail(w, "redo failed", string(id), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ReplaceHistory handles PUT /sessions/{session_id}/history.
// Body: the persisted JSON edit list. Malformed entries are dropped and counted.
func (h *Handler) ReplaceHistory(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxHistoryBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	kept, dropped, err := h.svc.Hydrate(id, raw)
	if err != nil {
		h.fail(w, "replace history failed", string(id), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"kept": kept, "dropped": dropped})
}

// Save handles POST /sessions/{session_id}/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if err := h.svc.Save(r.Context(), id); err != nil {
		h.fail(w, "save failed", string(id), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type segmentsResponse struct {
	Segments []timeline.KeepSegment `json:"segments"`
	Empty    bool                   `json:"empty"`
	Kept     float64                `json:"kept_seconds"`
}

// GetSegments handles GET /sessions/{session_id}/segments.
func (h *Handler) GetSegments(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	segs, err := h.svc.Segments(id)
	if err != nil && !isEmptyResolution(err) {
		h.fail(w, "resolve failed", string(id), err)
		return
	}
	if segs == nil {
		segs = []timeline.KeepSegment{}
	}
	writeJSON(w, http.StatusOK, segmentsResponse{
		Segments: segs,
		Empty:    len(segs) == 0,
		Kept:     timeline.TotalLength(segs),
	})
}

// GetRuler handles GET /sessions/{session_id}/ruler?ticks=N.
func (h *Handler) GetRuler(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	n := h.rulerTicks
	if v := r.URL.Query().Get("ticks"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "ticks must be a positive integer")
			return
		}
		n = parsed
	}

	ticks, err := h.svc.Ruler(id, n)
	if err != nil {
		h.fail(w, "ruler failed", string(id), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticks": ticks})
}

// GetEDL handles GET /sessions/{session_id}/edl?fps=N.
func (h *Handler) GetEDL(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	fps := 0.0
	if v := r.URL.Query().Get("fps"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "fps must be a positive number")
			return
		}
		fps = parsed
	}

	edl, err := h.svc.EDL(id, fps)
	if err != nil {
		h.fail(w, "edl failed", string(id), err)
		return
	}
	w.Header().Set("Content-Type", edlContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(edl))
}

// Submit handles POST /sessions/{session_id}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	sub, err := h.svc.Submit(r.Context(), id)
	if err != nil {
		h.fail(w, "submit failed", string(id), err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ListSubmissions handles GET /sessions/{session_id}/submissions.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	subs, err := h.svc.Submissions(r.Context(), id)
	if err != nil {
		h.fail(w, "list submissions failed", string(id), err)
		return
	}
	if subs == nil {
		subs = []Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, msg, id string, err error) {
	attrs := []any{slog.String("error", err.Error())}
	if id != "" {
		attrs = append(attrs, slog.String("session_id", id))
	}

	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, timeline.ErrInvalidEdit), errors.Is(err, ErrInvalidMedia):
		h.log.Info(msg, attrs...)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSubmissionInFlight), errors.Is(err, ErrSessionExists):
		h.log.Info(msg, attrs...)
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrProcessingFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error(msg, attrs...)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func sessionID(r *http.Request) SessionID {
	return SessionID(chi.URLParam(r, "session_id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
