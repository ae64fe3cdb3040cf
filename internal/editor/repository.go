package editor

import (
	"errors"
	"sort"
	"sync"
)

// Repository defines the concurrency-safe contract for tracking open edit sessions.
// The history inside a session carries its own lock; the repository guards membership
// and the submission flag.
type Repository interface {
	// Create registers a new session. ErrSessionExists is returned on an ID collision.
	Create(s *Session) error

	// Get returns the session with the given ID.
	Get(id SessionID) (*Session, bool)

	// Delete removes the session. It reports whether the session existed.
	Delete(id SessionID) bool

	// BeginSubmit marks the session as submitting and returns it. At most one
	// submission per session may be in flight; a second call before EndSubmit
	// returns ErrSubmissionInFlight.
	BeginSubmit(id SessionID) (*Session, error)

	// EndSubmit clears the submitting flag and, when sub is non-nil, records it
	// as the session's last submission.
	EndSubmit(id SessionID, sub *Submission)

	// IsSubmitting reports whether a submission is in flight for the session.
	IsSubmitting(id SessionID) bool

	// LastSubmission returns the most recent completed submission, if any.
	LastSubmission(id SessionID) *Submission

	// ActiveSessionCount returns the number of open sessions.
	// Used for metrics.
	ActiveSessionCount() int

	// ListSessionIDs returns the open session IDs in sorted order.
	ListSessionIDs() []SessionID
}

var (
	// ErrSessionNotFound is returned when the session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session whose ID is taken.
	ErrSessionExists = errors.New("session already exists")

	// ErrSubmissionInFlight is returned when a submission is requested while another
	// for the same session has not finished.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrInvalidMedia is returned when a session is opened with an unusable media descriptor.
	ErrInvalidMedia = errors.New("invalid media")

	// ErrProcessingFailed wraps errors reported by the media processor.
	ErrProcessingFailed = errors.New("media processing failed")
)

// InMemoryRepository is a concurrency-safe in-memory implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Create implements Repository.Create.
func (r *InMemoryRepository) Create(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.GetSession(s.ID); exists {
		return ErrSessionExists
	}
	r.store.SetSession(s)
	return nil
}

// Get implements Repository.Get.
func (r *InMemoryRepository) Get(id SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetSession(id)
}

// Delete implements Repository.Delete.
func (r *InMemoryRepository) Delete(id SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store.GetSession(id); !ok {
		return false
	}
	r.store.DeleteSession(id)
	return true
}

// BeginSubmit implements Repository.BeginSubmit.
func (r *InMemoryRepository) BeginSubmit(id SessionID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.store.GetSession(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Submitting {
		return nil, ErrSubmissionInFlight
	}
	s.Submitting = true
	return s, nil
}

// EndSubmit implements Repository.EndSubmit.
func (r *InMemoryRepository) EndSubmit(id SessionID, sub *Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.store.GetSession(id)
	if !ok {
		return
	}
	s.Submitting = false
	if sub != nil {
		s.LastSubmission = sub
	}
}

// IsSubmitting implements Repository.IsSubmitting.
func (r *InMemoryRepository) IsSubmitting(id SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.store.GetSession(id)
	return ok && s.Submitting
}

// LastSubmission implements Repository.LastSubmission.
func (r *InMemoryRepository) LastSubmission(id SessionID) *Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.store.GetSession(id)
	if !ok || s.LastSubmission == nil {
		return nil
	}
	sub := *s.LastSubmission
	return &sub
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.ListSessionIDs())
}

// ListSessionIDs implements Repository.ListSessionIDs.
func (r *InMemoryRepository) ListSessionIDs() []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.store.ListSessionIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
