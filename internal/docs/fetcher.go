package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/appscaffold/guides-mcp-server/internal/htmltext"
	"github.com/appscaffold/guides-mcp-server/internal/pagecache"
	"github.com/appscaffold/guides-mcp-server/internal/snippet"
)

const (
	// defaultFetchTimeout bounds a single outbound page fetch.
	defaultFetchTimeout = 10 * time.Second
	// maxBodyBytes caps how much of an upstream response is read.
	maxBodyBytes = 4 << 20
	// previewBytes bounds the page preview returned for query-less fetches.
	previewBytes = 2000
	userAgent    = "guides-mcp-server/1.0"
)

// URLResult is the per-URL outcome of a documentation search. Failures are
// reported inline here rather than aborting sibling URLs in the same call.
type URLResult struct {
	URL      string
	OK       bool
	Status   int
	Err      string
	Snippets []string
}

// Fetcher orchestrates the page cache, HTML reduction, and snippet search
// against the documentation registry.
type Fetcher struct {
	registry *Registry
	cache    *pagecache.Cache
	client   *http.Client
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// NewFetcher creates a fetcher with the given registry and cache. timeout
// bounds each outbound request; maxConcurrent bounds the request rate.
func NewFetcher(registry *Registry, cache *pagecache.Cache, timeout time.Duration, maxConcurrent int, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Fetcher{
		registry: registry,
		cache:    cache,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(maxConcurrent), maxConcurrent),
		logger:   logger,
	}
}

// ErrUnknownSource reports a docId that is not in the registry. It is a
// client-visible condition, surfaced as data by callers, never a panic.
type ErrUnknownSource struct{ ID string }

func (e *ErrUnknownSource) Error() string {
	return fmt.Sprintf("unknown documentation source: %s", e.ID)
}

// Search fetches up to maxURLs pages registered under docID (all of them when
// maxURLs <= 0), runs the snippet finder against each, and returns per-URL
// results in registry order regardless of fetch completion order.
//
// Per-URL failures do not abort the batch: each failed slot carries its error
// inline and the sibling fetches proceed.
func (f *Fetcher) Search(ctx context.Context, docID, query string, maxURLs, maxMatchesPerURL int) ([]URLResult, error) {
	source, ok := f.registry.Get(docID)
	if !ok {
		return nil, &ErrUnknownSource{ID: docID}
	}

	urls := source.URLs
	if maxURLs > 0 && maxURLs < len(urls) {
		urls = urls[:maxURLs]
	}
	if maxMatchesPerURL <= 0 {
		maxMatchesPerURL = 5
	}

	// Fan out concurrently but write each outcome into its registry-order
	// slot so the output ordering is stable for callers and tests.
	results := make([]URLResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			results[i] = f.searchURL(gctx, url, query, maxMatchesPerURL)
			return nil
		})
	}
	// Goroutines never return errors; the join is all-settled.
	_ = g.Wait()

	return results, nil
}

// FetchURL fetches a single ad-hoc URL (sharing the registry cache) and runs
// the snippet finder when query is non-empty. With an empty query the result
// carries a bounded preview of the page text instead.
func (f *Fetcher) FetchURL(ctx context.Context, url, query string, maxMatches int) URLResult {
	if maxMatches <= 0 {
		maxMatches = 5
	}
	if query != "" {
		return f.searchURL(ctx, url, query, maxMatches)
	}

	page := f.page(ctx, url)
	res := URLResult{URL: url, OK: page.OK, Status: page.StatusCode}
	text := page.Text
	if len(text) > previewBytes {
		// Back the cut off to a rune boundary so the preview stays valid UTF-8.
		cut := previewBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	if text != "" {
		res.Snippets = []string{text}
	}
	if !page.OK && page.StatusCode == 0 {
		res.Err = "fetch failed"
	}
	return res
}

// searchURL resolves one URL through the cache and searches its text.
func (f *Fetcher) searchURL(ctx context.Context, url, query string, maxMatches int) URLResult {
	page := f.page(ctx, url)

	res := URLResult{URL: url, OK: page.OK, Status: page.StatusCode}
	if !page.OK && page.Text == "" {
		res.Err = fmt.Sprintf("fetch failed (status %d)", page.StatusCode)
		return res
	}
	if !page.OK {
		res.Err = fmt.Sprintf("upstream returned status %d; searching best-effort preview", page.StatusCode)
	}
	res.Snippets = snippet.Find(page.Text, query, maxMatches)
	return res
}

// page returns the cached text for url, fetching and reducing it on a miss or
// stale entry. Both successful and failed fetches are cached.
func (f *Fetcher) page(ctx context.Context, url string) *pagecache.Page {
	if cached, ok := f.cache.Get(url); ok {
		f.logger.Debug().Str("url", url).Msg("page cache hit")
		return cached
	}

	page := f.fetch(ctx, url)
	f.cache.Put(page)
	return page
}

// fetch performs the bounded HTTP GET and reduces the body to plain text.
// Non-2xx responses are not errors here: the reduced body is kept as a
// best-effort preview with OK=false.
func (f *Fetcher) fetch(ctx context.Context, url string) *pagecache.Page {
	page := &pagecache.Page{URL: url, FetchedAt: time.Now()}

	if err := f.limiter.Wait(ctx); err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("rate limiter wait aborted")
		return page
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Error().Err(err).Str("url", url).Msg("building fetch request failed")
		return page
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("documentation fetch failed")
		return page
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("reading fetch body failed")
		return page
	}

	page.StatusCode = resp.StatusCode
	page.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	page.Text = htmltext.Reduce(string(body))

	f.logger.Info().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("text_size", len(page.Text)).
		Msg("fetched documentation page")

	return page
}
