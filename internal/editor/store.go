package editor

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// Store is the persistence abstraction for open sessions.
// The Repository uses Store for all reads and writes; callers of Repository
// do not need to know which Store is used.
type Store interface {
	GetSession(id SessionID) (*Session, bool)
	SetSession(s *Session)
	DeleteSession(id SessionID)
	ListSessionIDs() []SessionID
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	sessions map[SessionID]*Session
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[SessionID]*Session),
	}
}

// GetSession implements Store.GetSession.
func (s *InMemoryStore) GetSession(id SessionID) (*Session, bool) {
	st, ok := s.sessions[id]
	return st, ok
}

// SetSession implements Store.SetSession.
func (s *InMemoryStore) SetSession(st *Session) {
	s.sessions[st.ID] = st
}

// DeleteSession implements Store.DeleteSession.
func (s *InMemoryStore) DeleteSession(id SessionID) {
	delete(s.sessions, id)
}

// ListSessionIDs implements Store.ListSessionIDs.
func (s *InMemoryStore) ListSessionIDs() []SessionID {
	ids := make([]SessionID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// HistoryStore persists edit histories per media item, in the serialized form produced by
// timeline.MarshalHistory, and keeps a log of completed submissions.
type HistoryStore interface {
	// LoadHistory returns the stored edit list for mediaID. ok is false when none exists.
	LoadHistory(ctx context.Context, mediaID string) (data []byte, ok bool, err error)
	// SaveHistory replaces the stored edit list for mediaID.
	SaveHistory(ctx context.Context, mediaID string, data []byte) error
	// RecordSubmission appends a completed submission.
	RecordSubmission(ctx context.Context, sub Submission) error
	// ListSubmissions returns submissions for mediaID, oldest first.
	ListSubmissions(ctx context.Context, mediaID string) ([]Submission, error)
}

// MemoryHistoryStore is a concurrency-safe in-memory HistoryStore.
type MemoryHistoryStore struct {
	mu          sync.RWMutex
	histories   map[string][]byte
	submissions map[string][]Submission
}

// NewMemoryHistoryStore returns an empty MemoryHistoryStore.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		histories:   make(map[string][]byte),
		submissions: make(map[string][]Submission),
	}
}

// LoadHistory implements HistoryStore.LoadHistory.
func (m *MemoryHistoryStore) LoadHistory(_ context.Context, mediaID string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.histories[mediaID]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// SaveHistory implements HistoryStore.SaveHistory.
func (m *MemoryHistoryStore) SaveHistory(_ context.Context, mediaID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[mediaID] = append([]byte(nil), data...)
	return nil
}

// RecordSubmission implements HistoryStore.RecordSubmission.
// Submissions are kept ordered by completion time; ties keep insertion order.
func (m *MemoryHistoryStore) RecordSubmission(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.submissions[sub.MediaID]
	i := sort.Search(len(subs), func(i int) bool { return subs[i].CompletedAt.After(sub.CompletedAt) })
	m.submissions[sub.MediaID] = slices.Insert(subs, i, sub)
	return nil
}

// ListSubmissions implements HistoryStore.ListSubmissions.
func (m *MemoryHistoryStore) ListSubmissions(_ context.Context, mediaID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Submission(nil), m.submissions[mediaID]...), nil
}
