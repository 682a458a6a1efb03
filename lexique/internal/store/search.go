package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/lexq/lexique/internal/textscan"
)

// Search runs the server-side word-boundary search: one REGEXP predicate per
// cleaned query word, joined by the combinator, executed as a single query.
// Words must already have gone through textscan.CleanWords.
func (s *Store) Search(ctx context.Context, words []string, comb textscan.Combinator) ([]*Paragraph, error) {
	if len(words) == 0 {
		return nil, nil
	}

	preds := make([]string, len(words))
	args := make([]any, len(words))
	for i, w := range words {
		preds[i] = "content REGEXP ?"
		args[i] = textscan.Pattern(w)
	}

	join := " AND "
	if comb == textscan.CombinatorOr {
		join = " OR "
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, content, created_at FROM paragraphs WHERE `+
			strings.Join(preds, join)+` ORDER BY id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search paragraphs: %w", err)
	}
	defer rows.Close()
	return collectParagraphs(rows)
}
