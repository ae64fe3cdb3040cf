package editor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"timeline-editor/internal/platform/db"
	"timeline-editor/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	s.SetSession(newTestSession("x"))

	got, ok := s.GetSession("x")
	if !ok || got.ID != "x" {
		t.Fatalf("GetSession: got %+v, ok=%v", got, ok)
	}
	if ids := s.ListSessionIDs(); len(ids) != 1 {
		t.Errorf("ListSessionIDs: got %v", ids)
	}
	s.DeleteSession("x")
	if _, ok := s.GetSession("x"); ok {
		t.Error("GetSession after delete: expected not found")
	}
}

func openSQLiteStore(t *testing.T) *SQLiteHistoryStore {
	t.Helper()
	database, err := db.Open(context.Background(), db.Options{Path: filepath.Join(t.TempDir(), "timeline.db")})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewSQLiteHistoryStore(database.Conn())
}

// Both HistoryStore implementations must behave the same.
func TestHistoryStores(t *testing.T) {
	stores := map[string]func(t *testing.T) HistoryStore{
		"memory": func(t *testing.T) HistoryStore { return NewMemoryHistoryStore() },
		"sqlite": func(t *testing.T) HistoryStore { return openSQLiteStore(t) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			hs := newStore(t)

			_, ok, err := hs.LoadHistory(ctx, "m1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, hs.SaveHistory(ctx, "m1", []byte(`[{"start":1,"end":2,"type":"splice"}]`)))
			require.NoError(t, hs.SaveHistory(ctx, "m1", []byte(`[]`)))

			data, ok, err := hs.LoadHistory(ctx, "m1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "[]", string(data))

			completed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			require.NoError(t, hs.RecordSubmission(ctx, Submission{
				ID: "sub-1", MediaID: "m1", Output: "out-1.mp4",
				Segments:    []timeline.KeepSegment{{Start: 0, End: 10}},
				CompletedAt: completed,
			}))
			require.NoError(t, hs.RecordSubmission(ctx, Submission{
				ID: "sub-2", MediaID: "m1", Output: "blank.mp4", Placeholder: true,
				CompletedAt: completed.Add(time.Minute),
			}))
			require.NoError(t, hs.RecordSubmission(ctx, Submission{
				ID: "sub-3", MediaID: "other", Output: "x", CompletedAt: completed,
			}))

			subs, err := hs.ListSubmissions(ctx, "m1")
			require.NoError(t, err)
			require.Len(t, subs, 2)
			assert.Equal(t, "sub-1", subs[0].ID)
			assert.Equal(t, []timeline.KeepSegment{{Start: 0, End: 10}}, subs[0].Segments)
			assert.True(t, subs[0].CompletedAt.Equal(completed))
			assert.Equal(t, "sub-2", subs[1].ID)
			assert.True(t, subs[1].Placeholder)
		})
	}
}

// Whole and fractional seconds must list chronologically, whatever the insert order.
func TestHistoryStores_submissionOrder(t *testing.T) {
	stores := map[string]func(t *testing.T) HistoryStore{
		"memory": func(t *testing.T) HistoryStore { return NewMemoryHistoryStore() },
		"sqlite": func(t *testing.T) HistoryStore { return openSQLiteStore(t) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			hs := newStore(t)

			whole := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			record := func(id string, at time.Time) {
				require.NoError(t, hs.RecordSubmission(ctx, Submission{ID: id, MediaID: "m1", Output: id, CompletedAt: at}))
			}
			record("tenth", whole.Add(100*time.Millisecond))
			record("whole", whole)
			record("later", whole.Add(time.Second))
			record("nano", whole.Add(time.Nanosecond))

			subs, err := hs.ListSubmissions(ctx, "m1")
			require.NoError(t, err)
			ids := make([]string, len(subs))
			for i, s := range subs {
				ids[i] = s.ID
			}
			assert.Equal(t, []string{"whole", "nano", "tenth", "later"}, ids)
			assert.True(t, subs[2].CompletedAt.Equal(whole.Add(100*time.Millisecond)))
		})
	}
}
