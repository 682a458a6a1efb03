package ingest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/lexq/lexique/internal/ingest"
)

func TestFetcherReturnsTrimmedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("  A paragraph about turtles being cunning reptiles.\n"))
	}))
	defer srv.Close()

	f := ingest.NewFetcher(ingest.FetcherConfig{URL: srv.URL})
	res, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Text != "A paragraph about turtles being cunning reptiles." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.StatusCode != 200 || res.Bytes == 0 {
		t.Errorf("StatusCode = %d, Bytes = %d", res.StatusCode, res.Bytes)
	}
}

func TestFetcherUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := ingest.NewFetcher(ingest.FetcherConfig{URL: srv.URL})
	res, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatal("want error on http 502")
	}
	if res == nil || res.StatusCode != 502 {
		t.Errorf("partial result should carry the status code, got %+v", res)
	}
}

func TestFetcherEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("   \n  "))
	}))
	defer srv.Close()

	f := ingest.NewFetcher(ingest.FetcherConfig{URL: srv.URL})
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("want error on empty body")
	}
}

const samplePage = `<!DOCTYPE html>
<html><head><title>Sample</title><style>p{color:red}</style></head>
<body>
<nav><a href="/">Home</a> | <a href="/about">About</a></nav>
<article>
<h1>On the Subject of Herons</h1>
<p>A heron is a patient hunter, standing motionless in shallow water for long stretches while it waits for careless fish.</p>
<p>Some authors have seen the heron as a figure of contemplation; others note only the sharpness of its beak and the speed of the strike.</p>
<script>alert("tracked")</script>
</article>
<footer>Copyright someone</footer>
</body></html>`

func TestImporterFromHTML(t *testing.T) {
	im := ingest.NewImporter(ingest.ImporterConfig{})

	paragraphs, err := im.FromHTML(samplePage)
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if len(paragraphs) < 2 {
		t.Fatalf("want at least 2 paragraphs, got %d: %v", len(paragraphs), paragraphs)
	}

	joined := strings.Join(paragraphs, " ")
	if !strings.Contains(joined, "patient hunter") {
		t.Errorf("first paragraph missing: %v", paragraphs)
	}
	if strings.Contains(joined, "alert(") {
		t.Error("script content leaked into paragraphs")
	}
	if strings.Contains(joined, "Copyright") || strings.Contains(joined, "About") {
		t.Error("boilerplate leaked into paragraphs")
	}
}

func TestImporterImportOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	im := ingest.NewImporter(ingest.ImporterConfig{})
	paragraphs, err := im.Import(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(paragraphs) == 0 {
		t.Fatal("want paragraphs from imported page")
	}
}

func TestImporterRejectsEmptyDocument(t *testing.T) {
	im := ingest.NewImporter(ingest.ImporterConfig{})
	if _, err := im.FromHTML("<html><body><p>tiny</p></body></html>"); err == nil {
		t.Error("want error when nothing survives the length filter")
	}
}
