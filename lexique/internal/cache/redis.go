package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	// Addr is host:port. Default: "localhost:6379".
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// DialTimeoutMs bounds connection establishment. Default: 1000.
	DialTimeoutMs int `yaml:"dial_timeout_ms"`
	// OpTimeoutMs bounds every cache operation, including the availability
	// probe. Keeping it short is what makes Available cheap. Default: 500.
	OpTimeoutMs int `yaml:"op_timeout_ms"`
}

func (c *RedisConfig) defaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.DialTimeoutMs <= 0 {
		c.DialTimeoutMs = 1000
	}
	if c.OpTimeoutMs <= 0 {
		c.OpTimeoutMs = 500
	}
}

type redisStore struct {
	client    *redis.Client
	log       *slog.Logger
	opTimeout time.Duration
}

func newRedisStore(cfg RedisConfig, log *slog.Logger) *redisStore {
	opTimeout := time.Duration(cfg.OpTimeoutMs) * time.Millisecond
	return &redisStore{
		client: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  time.Duration(cfg.DialTimeoutMs) * time.Millisecond,
			ReadTimeout:  opTimeout,
			WriteTimeout: opTimeout,
		}),
		log:       log,
		opTimeout: opTimeout,
	}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.log.Debug("cache: redis get failed", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.log.Warn("cache: redis set failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *redisStore) Delete(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn("cache: redis delete failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *redisStore) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		s.log.Debug("cache: redis unavailable", "error", err)
		return false
	}
	return true
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
