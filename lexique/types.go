// Package lexique stores generated text paragraphs, searches them by word,
// and serves definitions for the most frequent words across the corpus.
//
// Definitions are resolved through a three-tier cache (aggregate result,
// frequency map, per-word definition) with independent TTLs, falling back to
// concurrent live lookups against the dictionary API. A cache that is down
// degrades the read path to direct computation, never to an error.
package lexique

import (
	"github.com/hazyhaar/lexq/lexique/internal/cache"
	"github.com/hazyhaar/lexq/lexique/internal/dict"
	"github.com/hazyhaar/lexq/lexique/internal/store"
	"github.com/hazyhaar/lexq/lexique/internal/textscan"
)

// Re-export internal types for the public API.
type (
	Paragraph      = store.Paragraph
	FetchLogEntry  = store.FetchLogEntry
	WordCount      = textscan.WordCount
	WordDefinition = dict.WordDefinition
	Combinator     = textscan.Combinator

	// CacheStore is the tiered cache handle injected into New. Open one
	// with Config.OpenCache; its lifecycle belongs to the entry point.
	CacheStore = cache.Store
)

// Combinator values accepted by Search.
const (
	CombinatorAnd = textscan.CombinatorAnd
	CombinatorOr  = textscan.CombinatorOr
)

// RefreshStatus summarizes one dictionary cache refresh run.
type RefreshStatus struct {
	Status         string `json:"status"` // "completed" | "nothing to process"
	WordsProcessed int    `json:"words_processed"`
	ParagraphID    int64  `json:"paragraph_id,omitempty"`
}

// Health is a point-in-time service snapshot. A degraded cache keeps the
// service healthy; it only flips CacheOK.
type Health struct {
	Status     string `json:"status"`
	CacheOK    bool   `json:"cache_ok"`
	Paragraphs int64  `json:"paragraphs"`
}
