package docs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/appscaffold/guides-mcp-server/internal/pagecache"
)

func testFetcher(t *testing.T, sources []Source) (*Fetcher, *pagecache.Cache) {
	t.Helper()
	cache := pagecache.New(pagecache.DefaultTTL)
	f := NewFetcher(NewRegistry(sources), cache, 5*time.Second, 4, zerolog.Nop())
	return f, cache
}

func TestSearchUnknownSource(t *testing.T) {
	f, _ := testFetcher(t, DefaultSources())

	_, err := f.Search(context.Background(), "no-such-doc", "query", 0, 5)
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
	var unknown *ErrUnknownSource
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *ErrUnknownSource, got %T", err)
	}
	if unknown.ID != "no-such-doc" {
		t.Errorf("ID = %q, want %q", unknown.ID, "no-such-doc")
	}
}

func TestSearchFindsSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>getting started with widgets is easy</p></body></html>`)
	}))
	defer srv.Close()

	f, _ := testFetcher(t, []Source{{ID: "widgets", Title: "Widgets", URLs: []string{srv.URL}}})

	results, err := f.Search(context.Background(), "widgets", "widgets", 0, 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 url result, got %d", len(results))
	}
	if !results[0].OK {
		t.Fatalf("result not OK: %+v", results[0])
	}
	if len(results[0].Snippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(results[0].Snippets))
	}
	if !strings.Contains(results[0].Snippets[0], "widgets") {
		t.Errorf("snippet missing query: %q", results[0].Snippets[0])
	}
}

func TestSearchUsesCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `<p>cached content here</p>`)
	}))
	defer srv.Close()

	f, _ := testFetcher(t, []Source{{ID: "d", Title: "D", URLs: []string{srv.URL}}})

	for i := 0; i < 3; i++ {
		if _, err := f.Search(context.Background(), "d", "content", 0, 5); err != nil {
			t.Fatalf("Search() error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream fetched %d times, want 1", got)
	}
}

func TestSearchRefetchesAfterTTL(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `<p>expiring content</p>`)
	}))
	defer srv.Close()

	f, cache := testFetcher(t, []Source{{ID: "d", Title: "D", URLs: []string{srv.URL}}})

	if _, err := f.Search(context.Background(), "d", "content", 0, 5); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	cache.SetClock(func() time.Time { return time.Now().Add(11 * time.Minute) })
	if _, err := f.Search(context.Background(), "d", "content", 0, 5); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("upstream fetched %d times, want 2", got)
	}
}

func TestSearchFailureIsolation(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<p>healthy page mentions topic</p>`)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer bad.Close()

	f, _ := testFetcher(t, []Source{{ID: "d", Title: "D", URLs: []string{bad.URL, good.URL}}})

	results, err := f.Search(context.Background(), "d", "topic", 0, 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 url results, got %d", len(results))
	}
	// Registry order is preserved: slot 0 is the failing URL.
	if results[0].URL != bad.URL {
		t.Errorf("results[0].URL = %q, want %q", results[0].URL, bad.URL)
	}
	if results[0].OK {
		t.Error("results[0].OK = true, want false")
	}
	if results[0].Status != http.StatusNotFound {
		t.Errorf("results[0].Status = %d, want 404", results[0].Status)
	}
	if !results[1].OK {
		t.Errorf("healthy sibling should succeed: %+v", results[1])
	}
	if len(results[1].Snippets) == 0 {
		t.Error("healthy sibling returned no snippets")
	}
}

func TestSearchMaxURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<p>page body</p>`)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/c"}
	f, _ := testFetcher(t, []Source{{ID: "d", Title: "D", URLs: urls}})

	results, err := f.Search(context.Background(), "d", "body", 2, 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 url results with maxURLs=2, got %d", len(results))
	}
}

func TestFetchURLPreviewWithoutQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h1>Title</h1><p>some preview text</p>`)
	}))
	defer srv.Close()

	f, _ := testFetcher(t, nil)

	res := f.FetchURL(context.Background(), srv.URL, "", 5)
	if !res.OK {
		t.Fatalf("FetchURL not OK: %+v", res)
	}
	if len(res.Snippets) != 1 {
		t.Fatalf("expected a single preview snippet, got %d", len(res.Snippets))
	}
	if !strings.Contains(res.Snippets[0], "preview text") {
		t.Errorf("preview missing page text: %q", res.Snippets[0])
	}
}

func TestFetchURLPreviewRuneBoundary(t *testing.T) {
	// Three-byte runes ensure the preview cap lands mid-rune unless the cut
	// is aligned to a rune boundary.
	body := "<p>" + strings.Repeat("ⱥ", 1000) + "</p>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	f, _ := testFetcher(t, nil)

	res := f.FetchURL(context.Background(), srv.URL, "", 5)
	if !res.OK {
		t.Fatalf("FetchURL not OK: %+v", res)
	}
	if len(res.Snippets) != 1 {
		t.Fatalf("expected a single preview snippet, got %d", len(res.Snippets))
	}
	preview := res.Snippets[0]
	if !utf8.ValidString(preview) {
		t.Error("preview is not valid UTF-8")
	}
	if !strings.HasSuffix(preview, "...") {
		t.Error("long preview not truncated with ellipsis")
	}
}

func TestFetchURLUnreachable(t *testing.T) {
	f, _ := testFetcher(t, nil)

	res := f.FetchURL(context.Background(), "http://127.0.0.1:0/nope", "q", 5)
	if res.OK {
		t.Error("OK = true for unreachable url")
	}
	if res.Err == "" {
		t.Error("expected inline error description")
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry(DefaultSources())

	ids := r.IDs()
	want := []string{"zod", "react-navigation", "expo", "react-query", "tailwind"}
	if len(ids) != len(want) {
		t.Fatalf("IDs() len = %d, want %d", len(ids), len(want))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], id)
		}
	}

	if _, ok := r.Get("expo"); !ok {
		t.Error("Get(expo) missed")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
}
