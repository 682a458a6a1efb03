package store

import (
	"context"
	"fmt"
	"time"
)

// FetchLogEntry records one upstream fetch or import attempt.
type FetchLogEntry struct {
	ID           string
	SourceURL    string
	ParagraphID  int64 // 0 when no paragraph was stored
	Status       string
	StatusCode   int
	Bytes        int
	DurationMs   int64
	ErrorMessage string
	FetchedAt    time.Time
}

// InsertFetchLog appends a fetch log row.
func (s *Store) InsertFetchLog(ctx context.Context, e *FetchLogEntry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	var paragraphID any
	if e.ParagraphID != 0 {
		paragraphID = e.ParagraphID
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO fetch_log (id, source_url, paragraph_id, status, status_code, bytes, duration_ms, error_message, fetched_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.SourceURL, paragraphID, e.Status, e.StatusCode, e.Bytes,
		e.DurationMs, e.ErrorMessage, e.FetchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert fetch log: %w", err)
	}
	return nil
}

// FetchHistory returns the most recent fetch log rows, newest first.
func (s *Store) FetchHistory(ctx context.Context, limit int) ([]*FetchLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, source_url, COALESCE(paragraph_id, 0), status, status_code, bytes, duration_ms, error_message, fetched_at
		FROM fetch_log ORDER BY fetched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list fetch log: %w", err)
	}
	defer rows.Close()

	var out []*FetchLogEntry
	for rows.Next() {
		var e FetchLogEntry
		var fetchedAt int64
		if err := rows.Scan(&e.ID, &e.SourceURL, &e.ParagraphID, &e.Status,
			&e.StatusCode, &e.Bytes, &e.DurationMs, &e.ErrorMessage, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan fetch log: %w", err)
		}
		e.FetchedAt = time.UnixMilli(fetchedAt).UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetch log: %w", err)
	}
	return out, nil
}
