package cache_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hazyhaar/lexq/lexique/internal/cache"
)

func openBadger(t *testing.T) cache.Store {
	t.Helper()
	s, err := cache.Open(cache.Config{
		Backend: "badger",
		Badger:  cache.BadgerConfig{InMemory: true},
	}, slog.Default())
	if err != nil {
		t.Fatalf("open badger cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := cache.Open(cache.Config{Backend: "memcached"}, nil); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestBadgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t)

	if _, ok := s.Get(ctx, "missing"); ok {
		t.Error("missing key should read as absent")
	}

	if !s.Set(ctx, "k", []byte(`{"a":1}`), time.Hour) {
		t.Fatal("set should succeed")
	}
	val, ok := s.Get(ctx, "k")
	if !ok || string(val) != `{"a":1}` {
		t.Errorf("Get = %q, %v", val, ok)
	}

	if !s.Delete(ctx, "k") {
		t.Error("delete should succeed")
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("deleted key should read as absent")
	}
}

func TestBadgerTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t)

	// Badger tracks expiry at second granularity.
	s.Set(ctx, "short", []byte("v"), time.Second)
	if _, ok := s.Get(ctx, "short"); !ok {
		t.Fatal("fresh key should be present")
	}
	time.Sleep(1300 * time.Millisecond)
	if _, ok := s.Get(ctx, "short"); ok {
		t.Error("expired key should read as absent")
	}
}

func TestBadgerAvailability(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t)

	if !s.Available(ctx) {
		t.Error("open store should be available")
	}
	s.Close()
	if s.Available(ctx) {
		t.Error("closed store should be unavailable")
	}
}

// No cache operation may surface an error: after Close everything degrades
// to absent reads and false writes.
func TestNoFailAfterClose(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t)
	s.Set(ctx, "k", []byte("v"), time.Hour)
	s.Close()

	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("get on closed store should read as absent")
	}
	if s.Set(ctx, "k2", []byte("v"), time.Hour) {
		t.Error("set on closed store should return false")
	}
	if s.Delete(ctx, "k") {
		t.Error("delete on closed store should return false")
	}
}

// Redis with nothing listening must behave exactly like a down cache, not
// like a broken one.
func TestRedisUnreachableDegrades(t *testing.T) {
	s, err := cache.Open(cache.Config{
		Backend: "redis",
		Redis: cache.RedisConfig{
			Addr:          "127.0.0.1:1", // nothing listens here
			DialTimeoutMs: 50,
			OpTimeoutMs:   50,
		},
	}, slog.Default())
	if err != nil {
		t.Fatalf("open redis cache: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if s.Available(ctx) {
		t.Error("unreachable redis should report unavailable")
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("get against unreachable redis should read as absent")
	}
	if s.Set(ctx, "k", []byte("v"), time.Minute) {
		t.Error("set against unreachable redis should return false")
	}
	if s.Delete(ctx, "k") {
		t.Error("delete against unreachable redis should return false")
	}
}

func TestKeys(t *testing.T) {
	if got := cache.TopWordsKey(10); got != "topWordsDefinitions:10" {
		t.Errorf("TopWordsKey(10) = %q", got)
	}
	if got := cache.DefinitionKey("serendipity"); got != "wordDefinition:serendipity" {
		t.Errorf("DefinitionKey = %q", got)
	}
	if cache.FrequenciesKey != "wordFrequencies:all" {
		t.Errorf("FrequenciesKey = %q", cache.FrequenciesKey)
	}
}
