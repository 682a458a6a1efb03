package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	// Dir is the on-disk location of the store. Default: "data/cache".
	Dir string `yaml:"dir"`
	// InMemory skips the disk entirely. Used by tests.
	InMemory bool `yaml:"in_memory"`
}

func (c *BadgerConfig) defaults() {
	if c.Dir == "" && !c.InMemory {
		c.Dir = "data/cache"
	}
}

type badgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

func newBadgerStore(cfg BadgerConfig, log *slog.Logger) (*badgerStore, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLoggingLevel(badger.ERROR)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger at %q: %w", cfg.Dir, err)
	}
	return &badgerStore{db: db, log: log}, nil
}

func (s *badgerStore) Get(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		s.log.Debug("cache: badger get failed", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

func (s *badgerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.log.Warn("cache: badger set failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *badgerStore) Delete(ctx context.Context, key string) bool {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		s.log.Warn("cache: badger delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// Available is true while the store is open. Badger is in-process, so there
// is no transport to probe.
func (s *badgerStore) Available(ctx context.Context) bool {
	return !s.db.IsClosed()
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
