package dict_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/lexq/lexique/internal/dict"
)

const samplePayload = `[{
	"word": "quick",
	"phonetic": "/kwɪk/",
	"phonetics": [{"text": "/kwik/"}],
	"meanings": [
		{"definitions": [
			{"definition": "moving fast"},
			{"definition": "done in a short time"}
		]},
		{"definitions": [
			{"definition": "prompt to understand"},
			{"definition": "lively"},
			{"definition": "sensitive flesh"},
			{"definition": "a sixth definition that must be dropped"}
		]}
	]
}]`

func newClient(t *testing.T, handler http.HandlerFunc) *dict.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return dict.New(dict.Config{BaseURL: srv.URL})
}

func TestLookupParsesEntry(t *testing.T) {
	var gotPath string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(samplePayload))
	})

	def, err := c.Lookup(context.Background(), "quick")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gotPath != "/quick" {
		t.Errorf("request path = %q, want /quick", gotPath)
	}
	if def.Word != "quick" {
		t.Errorf("Word = %q", def.Word)
	}
	if len(def.Definitions) != 5 {
		t.Fatalf("definitions capped at 5, got %d: %v", len(def.Definitions), def.Definitions)
	}
	// Source order across meanings is preserved.
	if def.Definitions[0] != "moving fast" || def.Definitions[4] != "sensitive flesh" {
		t.Errorf("definition order wrong: %v", def.Definitions)
	}
	if def.Phonetic != "/kwɪk/" {
		t.Errorf("Phonetic = %q", def.Phonetic)
	}
}

func TestLookupPhoneticFallback(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"word":"tacit","phonetics":[{"text":""},{"text":"/ˈtasɪt/"}],
			"meanings":[{"definitions":[{"definition":"understood without being stated"}]}]}]`))
	})

	def, err := c.Lookup(context.Background(), "tacit")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if def.Phonetic != "/ˈtasɪt/" {
		t.Errorf("Phonetic fallback = %q", def.Phonetic)
	}
}

func TestLookupNotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no definitions", http.StatusNotFound)
	})

	_, err := c.Lookup(context.Background(), "zzzzzz")
	if !errors.Is(err, dict.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestLookupRateLimited(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := c.Lookup(context.Background(), "word")
	if !errors.Is(err, dict.ErrRateLimited) {
		t.Errorf("want ErrRateLimited, got %v", err)
	}
}

func TestLookupMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":    `<html>oops</html>`,
		"empty list":  `[]`,
		"wrong shape": `{"word":"x"}`,
	}
	for name, body := range cases {
		c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(body))
		})
		if _, err := c.Lookup(context.Background(), "word"); err == nil {
			t.Errorf("%s: want error, got nil", name)
		}
	}
}

func TestLookupServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if _, err := c.Lookup(context.Background(), "word"); err == nil {
		t.Error("want error on http 500")
	}
}
