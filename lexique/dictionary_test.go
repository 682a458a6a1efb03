package lexique_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/lexq/lexique"
	"github.com/hazyhaar/lexq/lexique/internal/cache"
)

// herons > fish > water by frequency; short tokens never rank.
const heronCorpus = "herons herons herons fish fish water on it"

func TestTopWordDefinitionsComputesAndPopulatesTiers(t *testing.T) {
	ctx := context.Background()
	cs := openBadgerCache(t)
	definer := newFakeDefiner()
	svc, st := newService(t, cs, definer, nil)
	seed(t, st, heronCorpus)

	defs, err := svc.TopWordDefinitions(ctx, 3)
	if err != nil {
		t.Fatalf("TopWordDefinitions: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("defs = %+v, want 3", defs)
	}
	if defs[0].Word != "herons" || defs[1].Word != "fish" || defs[2].Word != "water" {
		t.Errorf("order = %v", defs)
	}

	// All three tiers populated.
	if _, ok := cs.Get(ctx, cache.TopWordsKey(3)); !ok {
		t.Error("aggregate tier not populated")
	}
	if _, ok := cs.Get(ctx, cache.FrequenciesKey); !ok {
		t.Error("frequency tier not populated")
	}
	if _, ok := cs.Get(ctx, cache.DefinitionKey("herons")); !ok {
		t.Error("definition tier not populated")
	}
}

func TestTopWordDefinitionsAggregateHitSkipsWork(t *testing.T) {
	ctx := context.Background()
	definer := newFakeDefiner()
	svc, st := newService(t, openBadgerCache(t), definer, nil)
	seed(t, st, heronCorpus)

	if _, err := svc.TopWordDefinitions(ctx, 3); err != nil {
		t.Fatalf("first call: %v", err)
	}
	before := definer.total()

	if _, err := svc.TopWordDefinitions(ctx, 3); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if definer.total() != before {
		t.Errorf("aggregate hit should issue no lookups, got %d new", definer.total()-before)
	}
}

func TestTopWordDefinitionsPerWordTierSurvivesAggregateExpiry(t *testing.T) {
	ctx := context.Background()
	cs := openBadgerCache(t)
	definer := newFakeDefiner()
	svc, st := newService(t, cs, definer, nil)
	seed(t, st, heronCorpus)

	if _, err := svc.TopWordDefinitions(ctx, 3); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Simulate the short tiers expiring while definitions live on.
	cs.Delete(ctx, cache.TopWordsKey(3))
	cs.Delete(ctx, cache.FrequenciesKey)

	defs, err := svc.TopWordDefinitions(ctx, 3)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("defs = %v", defs)
	}
	for _, w := range []string{"herons", "fish", "water"} {
		if definer.count(w) != 1 {
			t.Errorf("word %q fetched %d times, want 1 (definition tier hit)", w, definer.count(w))
		}
	}
}

func TestTopWordDefinitionsInvalidLimit(t *testing.T) {
	svc, _ := newService(t, openBadgerCache(t), newFakeDefiner(), nil)
	for _, limit := range []int{0, -1} {
		if _, err := svc.TopWordDefinitions(context.Background(), limit); !errors.Is(err, lexique.ErrInvalidInput) {
			t.Errorf("limit %d: want ErrInvalidInput, got %v", limit, err)
		}
	}
}

func TestTopWordDefinitionsEmptyCorpus(t *testing.T) {
	ctx := context.Background()

	svc, _ := newService(t, openBadgerCache(t), newFakeDefiner(), nil)
	defs, err := svc.TopWordDefinitions(ctx, 10)
	if err != nil {
		t.Fatalf("empty corpus should not error: %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("defs = %v", defs)
	}

	// Same with the cache down.
	svc, _ = newService(t, &downCache{}, newFakeDefiner(), nil)
	defs, err = svc.TopWordDefinitions(ctx, 10)
	if err != nil || len(defs) != 0 {
		t.Errorf("direct mode on empty corpus = %v, %v", defs, err)
	}
}

func TestDirectModeBypassesCacheEntirely(t *testing.T) {
	ctx := context.Background()
	spy := &downCache{}
	definer := newFakeDefiner()
	svc, st := newService(t, spy, definer, nil)
	seed(t, st, heronCorpus)

	defs, err := svc.TopWordDefinitions(ctx, 3)
	if err != nil {
		t.Fatalf("TopWordDefinitions: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("direct mode should still resolve definitions, got %v", defs)
	}
	if defs[0].Word != "herons" {
		t.Errorf("order = %v", defs)
	}
	if n := spy.gets.Load() + spy.sets.Load() + spy.deletes.Load(); n != 0 {
		t.Errorf("direct mode issued %d cache data operations, want 0", n)
	}
}

func TestPartialLookupFailure(t *testing.T) {
	ctx := context.Background()
	definer := newFakeDefiner()
	definer.fail["fish"] = true
	svc, st := newService(t, openBadgerCache(t), definer, nil)
	seed(t, st, heronCorpus)

	defs, err := svc.TopWordDefinitions(ctx, 3)
	if err != nil {
		t.Fatalf("TopWordDefinitions: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("defs = %+v, want the 2 words that resolved", defs)
	}
	for _, d := range defs {
		if d.Word == "fish" {
			t.Error("failed word must not appear in the result")
		}
	}
}

func TestAllLookupsFailingYieldsEmptyResult(t *testing.T) {
	ctx := context.Background()
	definer := newFakeDefiner()
	for _, w := range []string{"herons", "fish", "water"} {
		definer.fail[w] = true
	}
	svc, st := newService(t, openBadgerCache(t), definer, nil)
	seed(t, st, heronCorpus)

	defs, err := svc.TopWordDefinitions(ctx, 3)
	if err != nil {
		t.Fatalf("wholly failing lookups should not error: %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("defs = %v", defs)
	}
}

func TestMalformedTierPayloadTreatedAsMiss(t *testing.T) {
	ctx := context.Background()
	cs := openBadgerCache(t)
	svc, st := newService(t, cs, newFakeDefiner(), nil)
	seed(t, st, heronCorpus)

	cs.Set(ctx, cache.TopWordsKey(3), []byte("{not json"), time.Hour)
	cs.Set(ctx, cache.FrequenciesKey, []byte(`["wrong","shape"]`), time.Hour)

	defs, err := svc.TopWordDefinitions(ctx, 3)
	if err != nil {
		t.Fatalf("TopWordDefinitions: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("malformed tiers should recompute, got %v", defs)
	}
}

func TestRefreshDictionaryCacheIdempotent(t *testing.T) {
	ctx := context.Background()
	cs := openBadgerCache(t)
	svc, st := newService(t, cs, newFakeDefiner(), nil)
	seed(t, st, heronCorpus)

	status, err := svc.RefreshDictionaryCache(ctx, 1)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if status.Status != "completed" || status.WordsProcessed != 3 {
		t.Errorf("status = %+v", status)
	}

	top1, _ := cs.Get(ctx, cache.TopWordsKey(10))
	freq1, _ := cs.Get(ctx, cache.FrequenciesKey)

	if _, err := svc.RefreshDictionaryCache(ctx, 1); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	top2, _ := cs.Get(ctx, cache.TopWordsKey(10))
	freq2, _ := cs.Get(ctx, cache.FrequenciesKey)

	if !bytes.Equal(top1, top2) {
		t.Errorf("aggregate tier changed across idempotent runs:\n%s\n%s", top1, top2)
	}
	if !bytes.Equal(freq1, freq2) {
		t.Errorf("frequency tier changed across idempotent runs:\n%s\n%s", freq1, freq2)
	}
}

func TestRefreshEmptyCorpusInvalidatesTiers(t *testing.T) {
	ctx := context.Background()
	cs := openBadgerCache(t)
	svc, _ := newService(t, cs, newFakeDefiner(), nil)

	// Stale tiers left over from a previous corpus state.
	cs.Set(ctx, cache.TopWordsKey(10), []byte(`{"words":[]}`), time.Hour)
	cs.Set(ctx, cache.FrequenciesKey, []byte(`{"old":3}`), time.Hour)

	status, err := svc.RefreshDictionaryCache(ctx, 7)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if status.Status != "nothing to process" || status.ParagraphID != 7 {
		t.Errorf("status = %+v", status)
	}
	if _, ok := cs.Get(ctx, cache.TopWordsKey(10)); ok {
		t.Error("aggregate tier should have been deleted")
	}
	if _, ok := cs.Get(ctx, cache.FrequenciesKey); ok {
		t.Error("frequency tier should have been deleted")
	}
}

func TestMergeOrderCacheHitsFirst(t *testing.T) {
	ctx := context.Background()
	cs := openBadgerCache(t)
	svc, st := newService(t, cs, newFakeDefiner(), nil)
	seed(t, st, heronCorpus)

	// Pre-cache the least frequent word only.
	cs.Set(ctx, cache.DefinitionKey("water"),
		[]byte(`{"word":"water","definitions":["a transparent liquid"]}`), time.Hour)

	defs, err := svc.TopWordDefinitions(ctx, 3)
	if err != nil {
		t.Fatalf("TopWordDefinitions: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("defs = %v", defs)
	}
	if defs[0].Word != "water" {
		t.Errorf("cache hits should merge first, got order %v", defs)
	}
	// Fetched words keep issue (frequency) order.
	if defs[1].Word != "herons" || defs[2].Word != "fish" {
		t.Errorf("fetched order = %v", defs)
	}
}
