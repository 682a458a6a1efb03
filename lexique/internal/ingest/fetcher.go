// Package ingest feeds the paragraph corpus: a plain-text fetcher for the
// upstream paragraph generator and an HTML import pipeline for seeding the
// corpus from real pages.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FetcherConfig configures the paragraph generator client.
type FetcherConfig struct {
	// URL of the generator endpoint, which returns one paragraph as
	// text/plain. Default: the public metaphorpsum endpoint.
	URL string `yaml:"url"`
	// TimeoutMs bounds the request. Default: 15000.
	TimeoutMs int `yaml:"timeout_ms"`
	// MaxBytes caps the response body read. Default: 1 MB.
	MaxBytes  int64  `yaml:"max_bytes"`
	UserAgent string `yaml:"user_agent"`
}

func (c *FetcherConfig) defaults() {
	if c.URL == "" {
		c.URL = "http://metaphorpsum.com/paragraphs/1/50"
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 15_000
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 1 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "lexq/1.0"
	}
}

// Fetcher retrieves generated paragraphs.
type Fetcher struct {
	client *http.Client
	cfg    FetcherConfig
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		cfg:    cfg,
	}
}

// FetchResult is the outcome of one generator call.
type FetchResult struct {
	Text       string
	StatusCode int
	Bytes      int
	Duration   time.Duration
}

// URL returns the configured generator endpoint, for logging.
func (f *Fetcher) URL() string { return f.cfg.URL }

// Fetch retrieves one paragraph from the generator. A non-2xx status or an
// empty body is an error; the partial result still carries the status code
// for the fetch log.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return &FetchResult{Duration: time.Since(start)}, fmt.Errorf("ingest: http get: %w", err)
	}
	defer resp.Body.Close()

	res := &FetchResult{StatusCode: resp.StatusCode, Duration: time.Since(start)}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return res, fmt.Errorf("ingest: generator returned http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes))
	if err != nil {
		return res, fmt.Errorf("ingest: read body: %w", err)
	}
	res.Bytes = len(body)
	res.Duration = time.Since(start)

	res.Text = strings.TrimSpace(string(body))
	if res.Text == "" {
		return res, fmt.Errorf("ingest: generator returned an empty body")
	}
	return res, nil
}
