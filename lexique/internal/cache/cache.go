// Package cache provides the tiered dictionary cache used by the lexique
// service: a key/value store with per-key TTL that is allowed to be down.
//
// Every operation is no-fail from the caller's perspective. A transport
// error, a missing key, and a malformed payload all read as "absent"; a
// failed write reads as false. Callers branch on explicit booleans, never on
// errors, so a degraded cache slows the pipeline down without ever breaking
// it.
//
// Two backends exist behind the Store interface: Redis for shared
// deployments and Badger for single-node ones (and for tests, where it runs
// in memory).
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Store is the tiered cache contract consumed by the aggregation pipeline.
type Store interface {
	// Get returns the value stored under key, or ok=false when the key is
	// absent, expired, or the backend is unreachable.
	Get(ctx context.Context, key string) (value []byte, ok bool)

	// Set stores value under key with the given TTL. Returns false when the
	// write did not happen.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool

	// Delete removes key. Returns false when the delete did not happen.
	Delete(ctx context.Context, key string) bool

	// Available reports whether the backend is reachable. It must stay cheap:
	// implementations bound the probe with a short timeout.
	Available(ctx context.Context) bool

	// Close releases the backend connection or closes the embedded store.
	Close() error
}

// Config selects and configures the cache backend.
type Config struct {
	// Backend is "redis" or "badger". Default: "redis".
	Backend string       `yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	Badger  BadgerConfig `yaml:"badger"`
}

func (c *Config) defaults() {
	if c.Backend == "" {
		c.Backend = "redis"
	}
	c.Redis.defaults()
	c.Badger.defaults()
}

// Open builds the configured backend. The returned Store is owned by the
// caller; close it on shutdown.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "redis":
		return newRedisStore(cfg.Redis, logger), nil
	case "badger":
		return newBadgerStore(cfg.Badger, logger)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q (use redis or badger)", cfg.Backend)
	}
}
