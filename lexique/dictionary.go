package lexique

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hazyhaar/lexq/lexique/internal/cache"
	"github.com/hazyhaar/lexq/lexique/internal/textscan"
)

// tieredResult is the cached shape of a materialized top-N answer.
type tieredResult struct {
	Words []WordDefinition `json:"words"`
}

// TopWordDefinitions returns definitions for the limit most frequent corpus
// words, walking the cache tiers from the outside in:
//
//  1. cache unavailable ⇒ direct mode, no cache traffic at all
//  2. aggregate hit ⇒ done
//  3. frequency-map hit ⇒ re-rank and truncate; miss ⇒ recompute from the
//     corpus and populate the tier
//  4. per-word resolution: cache hits collected, misses fetched concurrently,
//     failed lookups dropped
//  5. non-empty results re-populate the aggregate tier
//
// An empty corpus and a wholly failing dictionary both yield an empty list,
// never an error. Only corpus errors propagate.
func (s *Service) TopWordDefinitions(ctx context.Context, limit int) ([]WordDefinition, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidInput, limit)
	}

	if !s.cache.Available(ctx) {
		s.logger.Warn("lexique: cache unavailable, serving dictionary directly")
		return s.topWordsDirect(ctx, limit)
	}

	var top tieredResult
	if s.cacheGet(ctx, cache.TopWordsKey(limit), &top) && len(top.Words) > 0 {
		s.logEvent(ctx, "dictionary.served", "dictionary", strconv.Itoa(limit), "cache_hit", true)
		return top.Words, nil
	}

	entries, err := s.rankedFrequencies(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		// Nothing to define; the empty set is not cached at the aggregate
		// tier so a growing corpus is picked up immediately.
		return []WordDefinition{}, nil
	}

	defs := s.resolveDefinitions(ctx, wordsOf(entries), true)
	if len(defs) > 0 {
		s.cacheSet(ctx, cache.TopWordsKey(limit), tieredResult{Words: defs}, s.config.TTL.TopWords())
	}

	s.logEvent(ctx, "dictionary.served", "dictionary", strconv.Itoa(limit), "computed", true)
	return defs, nil
}

// topWordsDirect is the cache-bypassing path: frequencies straight from the
// corpus, live lookups for every top word, zero cache calls.
func (s *Service) topWordsDirect(ctx context.Context, limit int) ([]WordDefinition, error) {
	entries, err := s.corpusFrequencies(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []WordDefinition{}, nil
	}
	defs := s.resolveDefinitions(ctx, wordsOf(entries), false)
	s.logEvent(ctx, "dictionary.served", "dictionary", strconv.Itoa(limit), "direct", true)
	return defs, nil
}

// rankedFrequencies serves the frequency tier: a cached map is re-ranked and
// truncated; a miss recomputes from the corpus and populates the tier.
func (s *Service) rankedFrequencies(ctx context.Context, limit int) ([]WordCount, error) {
	var counts map[string]int
	if s.cacheGet(ctx, cache.FrequenciesKey, &counts) && len(counts) > 0 {
		return textscan.Rank(counts, limit), nil
	}

	// The tier holds the full corpus map so any later limit can re-rank it.
	all, err := s.corpusFrequencies(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		s.cacheSet(ctx, cache.FrequenciesKey, frequencyMap(all), s.config.TTL.Frequencies())
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// corpusFrequencies computes the top word frequencies from the full corpus.
func (s *Service) corpusFrequencies(ctx context.Context, limit int) ([]WordCount, error) {
	paragraphs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Content
	}
	return textscan.Frequencies(texts, limit), nil
}

// resolveDefinitions partitions words into per-word cache hits and live
// lookups. Lookups run concurrently, one in-flight request per word, and
// write through to the definition tier. Failed lookups are dropped. The
// merge order is stable within a call: cache hits first, then fetched
// definitions in the order their lookups were issued.
func (s *Service) resolveDefinitions(ctx context.Context, words []string, useCache bool) []WordDefinition {
	var hits []WordDefinition
	misses := words
	if useCache {
		misses = nil
		for _, w := range words {
			var def WordDefinition
			if s.cacheGet(ctx, cache.DefinitionKey(w), &def) && def.Word != "" {
				hits = append(hits, def)
				continue
			}
			misses = append(misses, w)
		}
	}

	// Indexed writes keep issue order without a lock.
	fetched := make([]*WordDefinition, len(misses))
	var wg sync.WaitGroup
	for i, w := range misses {
		wg.Add(1)
		go func(i int, w string) {
			defer wg.Done()
			def, err := s.dict.Lookup(ctx, w)
			if err != nil {
				s.logger.Debug("lexique: definition dropped", "word", w, "error", err)
				return
			}
			fetched[i] = def
			if useCache {
				s.cacheSet(ctx, cache.DefinitionKey(w), def, s.config.TTL.Definition())
			}
		}(i, w)
	}
	wg.Wait()

	out := hits
	for _, d := range fetched {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// RefreshDictionaryCache recomputes the dictionary tiers after a corpus
// change. It is idempotent: re-running against the same corpus produces the
// same cache contents, which makes queue redelivery safe.
func (s *Service) RefreshDictionaryCache(ctx context.Context, paragraphID int64) (*RefreshStatus, error) {
	limit := s.config.Refresh.TopLimit

	all, err := s.corpusFrequencies(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		// Actively invalidate the stale tiers instead of waiting for TTLs.
		s.cache.Delete(ctx, cache.TopWordsKey(limit))
		s.cache.Delete(ctx, cache.FrequenciesKey)
		return &RefreshStatus{Status: "nothing to process", ParagraphID: paragraphID}, nil
	}

	s.cacheSet(ctx, cache.FrequenciesKey, frequencyMap(all), s.config.TTL.Frequencies())
	entries := all
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	defs := s.resolveDefinitions(ctx, wordsOf(entries), s.cache.Available(ctx))
	if len(defs) > 0 {
		s.cacheSet(ctx, cache.TopWordsKey(limit), tieredResult{Words: defs}, s.config.TTL.TopWords())
	}

	s.logEvent(ctx, "cache.refreshed", "dictionary", strconv.FormatInt(paragraphID, 10), "refresh", true)
	return &RefreshStatus{
		Status:         "completed",
		WordsProcessed: len(defs),
		ParagraphID:    paragraphID,
	}, nil
}

func wordsOf(entries []WordCount) []string {
	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Word
	}
	return words
}

func frequencyMap(entries []WordCount) map[string]int {
	m := make(map[string]int, len(entries))
	for _, e := range entries {
		m[e.Word] = e.Count
	}
	return m
}

// cacheGet loads and decodes one cache value. A malformed or schema-invalid
// payload reads as a miss.
func (s *Service) cacheGet(ctx context.Context, key string, v any) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Debug("lexique: malformed cache payload treated as miss", "key", key, "error", err)
		return false
	}
	return true
}

// cacheSet encodes and stores one cache value, best-effort.
func (s *Service) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("lexique: cache encode failed", "key", key, "error", err)
		return
	}
	if !s.cache.Set(ctx, key, raw, ttl) {
		s.logger.Debug("lexique: cache write skipped", "key", key)
	}
}
