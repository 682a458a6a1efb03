package lexique

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/lexq/lexique/internal/cache"
	"github.com/hazyhaar/lexq/lexique/internal/dict"
	"github.com/hazyhaar/lexq/lexique/internal/ingest"
)

// Config configures the lexique service.
type Config struct {
	// DBPath is the SQLite database holding the corpus, the refresh queue,
	// and the event log.
	DBPath string `yaml:"db_path"`

	Search    SearchConfig          `yaml:"search"`
	Cache     cache.Config          `yaml:"cache"`
	TTL       TTLConfig             `yaml:"ttl"`
	Dict      dict.Config           `yaml:"dictionary"`
	Generator ingest.FetcherConfig  `yaml:"generator"`
	Import    ingest.ImporterConfig `yaml:"import"`
	Refresh   RefreshConfig         `yaml:"refresh"`
}

// SearchConfig selects the word-boundary search strategy.
type SearchConfig struct {
	// Strategy is "auto", "sql", or "scan". "auto" probes the driver for
	// REGEXP support once at startup and picks "sql" when it works.
	Strategy string `yaml:"strategy"`
}

// TTLConfig carries the three tier TTLs. The aggregate and frequency tiers
// are deliberately shorter than the per-word one: the ranking goes stale
// quickly as the corpus grows, while a word's definition barely changes.
type TTLConfig struct {
	TopWordsSeconds    int `yaml:"top_words_seconds"`
	FrequenciesSeconds int `yaml:"frequencies_seconds"`
	DefinitionSeconds  int `yaml:"definition_seconds"`
}

// TopWords returns the aggregate-result TTL.
func (c TTLConfig) TopWords() time.Duration {
	return time.Duration(c.TopWordsSeconds) * time.Second
}

// Frequencies returns the frequency-map TTL.
func (c TTLConfig) Frequencies() time.Duration {
	return time.Duration(c.FrequenciesSeconds) * time.Second
}

// Definition returns the per-word definition TTL.
func (c TTLConfig) Definition() time.Duration {
	return time.Duration(c.DefinitionSeconds) * time.Second
}

// RefreshConfig configures the cache refresh task and its queue transport.
// Visibility and MaxAttempts together reproduce the retry policy: a failed
// run reappears after the visibility window, at most MaxAttempts times.
type RefreshConfig struct {
	Queue             string `yaml:"queue"`
	TopLimit          int    `yaml:"top_limit"`
	VisibilitySeconds int    `yaml:"visibility_seconds"`
	PollIntervalMs    int    `yaml:"poll_interval_ms"`
	MaxAttempts       int    `yaml:"max_attempts"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "data/lexq.db"
	}
	if c.Search.Strategy == "" {
		c.Search.Strategy = "auto"
	}
	if c.TTL.TopWordsSeconds <= 0 {
		c.TTL.TopWordsSeconds = 3600
	}
	if c.TTL.FrequenciesSeconds <= 0 {
		c.TTL.FrequenciesSeconds = 1800
	}
	if c.TTL.DefinitionSeconds <= 0 {
		c.TTL.DefinitionSeconds = 86400
	}
	if c.Refresh.Queue == "" {
		c.Refresh.Queue = "dictionary_refresh"
	}
	if c.Refresh.TopLimit <= 0 {
		c.Refresh.TopLimit = 10
	}
	if c.Refresh.VisibilitySeconds <= 0 {
		c.Refresh.VisibilitySeconds = 60
	}
	if c.Refresh.PollIntervalMs <= 0 {
		c.Refresh.PollIntervalMs = 1000
	}
	if c.Refresh.MaxAttempts <= 0 {
		c.Refresh.MaxAttempts = 3
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadConfig reads a YAML config file merged over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, cfg.Validate()
}

// OpenCache builds the configured cache backend. The caller owns the
// returned store and closes it on shutdown.
func (c *Config) OpenCache(logger *slog.Logger) (CacheStore, error) {
	return cache.Open(c.Cache, logger)
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	switch c.Search.Strategy {
	case "auto", "sql", "scan":
	default:
		return fmt.Errorf("search.strategy %q unsupported (use auto, sql or scan)", c.Search.Strategy)
	}
	switch c.Cache.Backend {
	case "", "redis", "badger":
	default:
		return fmt.Errorf("cache.backend %q unsupported (use redis or badger)", c.Cache.Backend)
	}
	return nil
}
