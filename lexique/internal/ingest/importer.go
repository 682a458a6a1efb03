package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// ImporterConfig configures the HTML import pipeline.
type ImporterConfig struct {
	// TimeoutMs bounds the page fetch. Default: 30000.
	TimeoutMs int `yaml:"timeout_ms"`
	// MaxBytes caps the page body read. Default: 10 MB.
	MaxBytes  int64  `yaml:"max_bytes"`
	UserAgent string `yaml:"user_agent"`
	// MinParagraphLen drops fragments shorter than this many characters
	// after conversion (headings, captions, nav crumbs). Default: 40.
	MinParagraphLen int `yaml:"min_paragraph_len"`
}

func (c *ImporterConfig) defaults() {
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 30_000
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "lexq/1.0"
	}
	if c.MinParagraphLen <= 0 {
		c.MinParagraphLen = 40
	}
}

// Importer turns a web page into corpus paragraphs: fetch, extract the main
// content, sanitize, convert to markdown-flavoured text, split on blank
// lines.
type Importer struct {
	client    *http.Client
	cfg       ImporterConfig
	sanitizer *bluemonday.Policy
	md        *converter.Converter
}

// NewImporter creates an Importer.
func NewImporter(cfg ImporterConfig) *Importer {
	cfg.defaults()
	return &Importer{
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		cfg:       cfg,
		sanitizer: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Import fetches a page and returns its paragraphs.
func (im *Importer) Import(ctx context.Context, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: new request: %w", err)
	}
	req.Header.Set("User-Agent", im.cfg.UserAgent)

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ingest: import source returned http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, im.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("ingest: read body: %w", err)
	}
	return im.FromHTML(string(body))
}

// FromHTML extracts paragraphs from raw HTML. The main content landmark is
// located first so navigation and boilerplate never reach the corpus.
func (im *Importer) FromHTML(rawHTML string) ([]string, error) {
	content, err := mainContent(rawHTML)
	if err != nil {
		return nil, fmt.Errorf("ingest: parse html: %w", err)
	}

	safe := im.sanitizer.Sanitize(content)

	text, err := im.md.ConvertString(safe)
	if err != nil || strings.TrimSpace(text) == "" {
		// Conversion is best-effort; fall back to the sanitized text with
		// tags already stripped by the policy round trip.
		text = safe
	}

	paragraphs := im.splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("ingest: no usable paragraphs in document")
	}
	return paragraphs, nil
}

// splitParagraphs cuts converted text on blank lines and keeps substantial
// prose blocks.
func (im *Importer) splitParagraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		// Collapse internal line breaks left over from conversion.
		block = strings.Join(strings.Fields(block), " ")
		if len(block) < im.cfg.MinParagraphLen {
			continue
		}
		out = append(out, block)
	}
	return out
}
