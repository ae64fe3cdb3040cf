package editor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteHistoryStore is a HistoryStore backed by the edit_histories and submissions tables.
type SQLiteHistoryStore struct {
	db *sql.DB
}

// NewSQLiteHistoryStore returns a store using db, which must have migrations applied.
func NewSQLiteHistoryStore(db *sql.DB) *SQLiteHistoryStore {
	return &SQLiteHistoryStore{db: db}
}

// LoadHistory implements HistoryStore.LoadHistory.
func (s *SQLiteHistoryStore) LoadHistory(ctx context.Context, mediaID string) ([]byte, bool, error) {
	var edits string
	err := s.db.QueryRowContext(ctx,
		`SELECT edits FROM edit_histories WHERE media_id = ?`, mediaID).Scan(&edits)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load history %s: %w", mediaID, err)
	}
	return []byte(edits), true, nil
}

// SaveHistory implements HistoryStore.SaveHistory.
func (s *SQLiteHistoryStore) SaveHistory(ctx context.Context, mediaID string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edit_histories (media_id, edits, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(media_id) DO UPDATE SET edits = excluded.edits, updated_at = excluded.updated_at
	`, mediaID, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save history %s: %w", mediaID, err)
	}
	return nil
}

// RecordSubmission implements HistoryStore.RecordSubmission.
func (s *SQLiteHistoryStore) RecordSubmission(ctx context.Context, sub Submission) error {
	segments, err := json.Marshal(sub.Segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, media_id, output, segments, placeholder, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.MediaID, sub.Output, string(segments), boolToInt(sub.Placeholder),
		sub.CompletedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record submission %s: %w", sub.ID, err)
	}
	return nil
}

// ListSubmissions implements HistoryStore.ListSubmissions.
func (s *SQLiteHistoryStore) ListSubmissions(ctx context.Context, mediaID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, media_id, output, segments, placeholder, completed_at
		FROM submissions WHERE media_id = ? ORDER BY completed_at ASC, rowid ASC
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("list submissions %s: %w", mediaID, err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var segments string
		var placeholder int
		var completedAt int64
		if err := rows.Scan(&sub.ID, &sub.MediaID, &sub.Output, &segments, &placeholder, &completedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(segments), &sub.Segments); err != nil {
			return nil, fmt.Errorf("decode segments of %s: %w", sub.ID, err)
		}
		sub.Placeholder = placeholder == 1
		sub.CompletedAt = time.Unix(0, completedAt).UTC()
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
