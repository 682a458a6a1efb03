package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/lexq/dbopen"
)

// Paragraph is one stored text document. Immutable after creation.
type Paragraph struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Insert stores a new paragraph and returns it with its assigned id.
func (s *Store) Insert(ctx context.Context, content string) (*Paragraph, error) {
	now := time.Now().UTC()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO paragraphs (content, created_at) VALUES (?, ?)`,
		content, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert paragraph: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert paragraph id: %w", err)
	}
	return &Paragraph{ID: id, Content: content, CreatedAt: now}, nil
}

// InsertBatch stores several paragraphs in one transaction and returns their
// ids in input order.
func (s *Store) InsertBatch(ctx context.Context, contents []string) ([]int64, error) {
	ids := make([]int64, 0, len(contents))
	now := time.Now().UTC().UnixMilli()
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, content := range contents {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO paragraphs (content, created_at) VALUES (?, ?)`,
				content, now,
			)
			if err != nil {
				return fmt.Errorf("insert paragraph: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("insert paragraph id: %w", err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Get returns a paragraph by id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Paragraph, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, content, created_at FROM paragraphs WHERE id = ?`, id,
	)
	return scanParagraph(row)
}

// List returns all paragraphs in insertion order.
func (s *Store) List(ctx context.Context) ([]*Paragraph, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, content, created_at FROM paragraphs ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list paragraphs: %w", err)
	}
	defer rows.Close()
	return collectParagraphs(rows)
}

// Count returns the number of stored paragraphs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM paragraphs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count paragraphs: %w", err)
	}
	return n, nil
}

func scanParagraph(row *sql.Row) (*Paragraph, error) {
	var p Paragraph
	var createdAt int64
	err := row.Scan(&p.ID, &p.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan paragraph: %w", err)
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}

func collectParagraphs(rows *sql.Rows) ([]*Paragraph, error) {
	var out []*Paragraph
	for rows.Next() {
		var p Paragraph
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan paragraph: %w", err)
		}
		p.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paragraphs: %w", err)
	}
	return out, nil
}
