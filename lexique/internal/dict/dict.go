// Package dict looks up word definitions against a dictionaryapi.dev-shaped
// REST endpoint: GET {base}/{word} returns a list of entries, each carrying
// meanings with ordered definitions and optional phonetics.
//
// Lookup failures of any kind (not found, transport error, timeout,
// malformed payload) surface as errors; the aggregation pipeline drops the
// word and moves on, so one bad word never poisons a batch.
package dict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the upstream dictionary has no entry for the
// word (HTTP 404).
var ErrNotFound = errors.New("dict: word not found")

// ErrRateLimited is returned when the upstream rejects the request with 429.
var ErrRateLimited = errors.New("dict: rate limited")

// WordDefinition is one resolved word with its top definitions.
type WordDefinition struct {
	Word        string   `json:"word"`
	Definitions []string `json:"definitions"`
	Phonetic    string   `json:"phonetic,omitempty"`
}

// Config configures the lookup client.
type Config struct {
	// BaseURL is the endpoint prefix; the word is appended as a path segment.
	// Default: the public dictionaryapi.dev English endpoint.
	BaseURL string `yaml:"base_url"`
	// TimeoutMs bounds one lookup so a slow word cannot stall a whole batch.
	// Default: 10000.
	TimeoutMs int `yaml:"timeout_ms"`
	// MaxDefinitions caps how many definitions are kept per word, in source
	// order. Default: 5.
	MaxDefinitions int    `yaml:"max_definitions"`
	UserAgent      string `yaml:"user_agent"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 10_000
	}
	if c.MaxDefinitions <= 0 {
		c.MaxDefinitions = 5
	}
	if c.UserAgent == "" {
		c.UserAgent = "lexq/1.0"
	}
}

// Client performs definition lookups.
type Client struct {
	client *http.Client
	cfg    Config
}

// New creates a lookup Client.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		cfg:    cfg,
	}
}

// Wire shape of one dictionaryapi.dev entry. Only the walked fields are
// declared; everything else in the payload is ignored.
type apiEntry struct {
	Word      string `json:"word"`
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text string `json:"text"`
	} `json:"phonetics"`
	Meanings []struct {
		Definitions []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Lookup fetches the definition of one word. The first entry of the response
// list wins; its meanings are flattened into at most MaxDefinitions strings.
func (c *Client) Lookup(ctx context.Context, word string) (*WordDefinition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/"+url.PathEscape(word), nil)
	if err != nil {
		return nil, fmt.Errorf("dict: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dict: http get %q: %w", word, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, word)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %q", ErrRateLimited, word)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("dict: http %d for %q", resp.StatusCode, word)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("dict: read body: %w", err)
	}

	var entries []apiEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("dict: json decode for %q: %w", word, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("dict: empty response for %q", word)
	}

	return c.fromEntry(word, &entries[0]), nil
}

func (c *Client) fromEntry(word string, e *apiEntry) *WordDefinition {
	def := &WordDefinition{Word: word, Definitions: []string{}}
	if e.Word != "" {
		def.Word = e.Word
	}

	for _, m := range e.Meanings {
		for _, d := range m.Definitions {
			if d.Definition == "" {
				continue
			}
			def.Definitions = append(def.Definitions, d.Definition)
			if len(def.Definitions) >= c.cfg.MaxDefinitions {
				return c.withPhonetic(def, e)
			}
		}
	}
	return c.withPhonetic(def, e)
}

// withPhonetic fills Phonetic from the entry's top-level field, falling back
// to the first non-empty phonetics[].text.
func (c *Client) withPhonetic(def *WordDefinition, e *apiEntry) *WordDefinition {
	if e.Phonetic != "" {
		def.Phonetic = e.Phonetic
		return def
	}
	for _, p := range e.Phonetics {
		if p.Text != "" {
			def.Phonetic = p.Text
			break
		}
	}
	return def
}
