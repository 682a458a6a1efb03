// Package textscan implements word-level text analysis for the paragraph
// corpus: query sanitization, tokenization into letter runs, whole-word
// matching, and corpus-wide frequency counting.
//
// Both search strategies derive from the same definitions here. The SQL
// strategy matches Pattern() against stored content; the in-process strategy
// tests membership in TokenSet(). For every query word that survives
// CleanWords the two agree on any content.
package textscan

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Combinator is the boolean join applied across multiple search words.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// ParseCombinator maps a request-level operator string to a Combinator.
func ParseCombinator(s string) (Combinator, error) {
	switch Combinator(strings.ToLower(strings.TrimSpace(s))) {
	case CombinatorAnd:
		return CombinatorAnd, nil
	case CombinatorOr:
		return CombinatorOr, nil
	default:
		return "", fmt.Errorf("unknown operator %q (use and|or)", s)
	}
}

// WordCount is one entry of a frequency ranking.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

var (
	// Characters with regex meaning are stripped from query words before
	// they reach either matcher.
	metaRE = regexp.MustCompile(`[\\/*?\[\](){}+|.^]`)

	// A token is a maximal run of ASCII letters.
	wordRE = regexp.MustCompile(`[a-zA-Z]+`)

	// Query words must be pure letter runs after stripping, so that the
	// boundary-regex strategy and the token-set strategy provably agree.
	letterRE = regexp.MustCompile(`^[a-zA-Z]+$`)
)

// Sanitize strips regex metacharacters and surrounding space from one word.
func Sanitize(word string) string {
	return strings.TrimSpace(metaRE.ReplaceAllString(word, ""))
}

// CleanWords sanitizes query words and drops everything that cannot
// participate in whole-word matching: empty results and words containing
// non-letter characters. Surviving words are lowercased. The result may be
// empty, which callers treat as "no matchable query".
func CleanWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = Sanitize(w)
		if w == "" || !letterRE.MatchString(w) {
			continue
		}
		out = append(out, strings.ToLower(w))
	}
	return out
}

// Pattern builds the boundary-anchored, case-insensitive regex for one
// cleaned query word. A match requires the word to stand alone: preceded and
// followed by a non-letter or the edge of the text.
func Pattern(word string) string {
	return `(^|[^a-zA-Z])(?i:` + regexp.QuoteMeta(word) + `)($|[^a-zA-Z])`
}

// Tokenize splits text into its lowercase letter-run tokens.
func Tokenize(text string) []string {
	return wordRE.FindAllString(strings.ToLower(text), -1)
}

// TokenSet returns the set of distinct tokens in text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// Match reports whether the token set satisfies the query under the given
// combinator. Words must already be cleaned and lowercased.
func Match(tokens map[string]struct{}, words []string, c Combinator) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		_, ok := tokens[w]
		if c == CombinatorAnd && !ok {
			return false
		}
		if c == CombinatorOr && ok {
			return true
		}
	}
	return c == CombinatorAnd
}

// Frequencies counts token occurrences across all texts and returns the top
// entries: tokens of length two or less are discarded, counts sort
// descending, ties keep first-encountered order, and the result is truncated
// to limit (limit <= 0 means no truncation). An empty corpus yields an empty
// ranking.
func Frequencies(texts []string, limit int) []WordCount {
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			if len(tok) <= 2 {
				continue
			}
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	entries := make([]WordCount, 0, len(order))
	for _, w := range order {
		entries = append(entries, WordCount{Word: w, Count: counts[w]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Rank orders an already-counted frequency map the way Frequencies orders a
// fresh scan, except that ties fall back to lexicographic order because a map
// carries no encounter order. Used when a cached frequency map is reloaded.
func Rank(counts map[string]int, limit int) []WordCount {
	entries := make([]WordCount, 0, len(counts))
	for w, n := range counts {
		entries = append(entries, WordCount{Word: w, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Word < entries[j].Word
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
