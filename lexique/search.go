package lexique

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hazyhaar/lexq/lexique/internal/textscan"
)

// Search returns the paragraphs matching the query words under the given
// operator ("and" | "or"). Matching is case-insensitive and whole-word: a
// query for "one" never matches "none", "someone", or "phone".
//
// Two strategies produce identical results: a single REGEXP-filtered SQL
// query when the driver supports it, and an in-process token scan otherwise.
// The strategy is fixed at construction from Config.Search.Strategy.
func (s *Service) Search(ctx context.Context, words []string, operator string) ([]*Paragraph, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: at least one search word is required", ErrInvalidInput)
	}
	comb, err := textscan.ParseCombinator(operator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cleaned := textscan.CleanWords(words)
	if len(cleaned) == 0 {
		// Every word vanished in sanitization; nothing can match.
		return []*Paragraph{}, nil
	}

	var results []*Paragraph
	if s.searchSQL {
		results, err = s.store.Search(ctx, cleaned, comb)
	} else {
		results, err = s.scanSearch(ctx, cleaned, comb)
	}
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, "search.performed", "search", "", "search", true)
	s.logger.Debug("lexique: search", "words", cleaned, "operator", string(comb),
		"hits", strconv.Itoa(len(results)))
	return results, nil
}

// scanSearch is the fallback strategy: load everything, tokenize, test the
// combinator in-process.
func (s *Service) scanSearch(ctx context.Context, words []string, comb textscan.Combinator) ([]*Paragraph, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*Paragraph, 0, len(all))
	for _, p := range all {
		if textscan.Match(textscan.TokenSet(p.Content), words, comb) {
			results = append(results, p)
		}
	}
	return results, nil
}
