// Package pagecache provides a time-bounded in-memory cache mapping a URL to
// previously fetched, reduced plain text.
package pagecache

import (
	"sync"
	"time"
)

// DefaultTTL is how long a cached page is served before a read treats it as
// absent and the caller refetches.
const DefaultTTL = 10 * time.Minute

// Page is a single cached fetch result. The cache never stores raw HTML, only
// reduced text; failed fetches are cached too, as best-effort previews.
type Page struct {
	URL        string
	FetchedAt  time.Time
	OK         bool
	StatusCode int
	Text       string
}

// Cache is a TTL-bounded URL cache. Entries are overwritten on refetch and
// never explicitly deleted: the URL universe is the small static doc registry,
// so the map stays bounded over the process lifetime.
type Cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	pages map[string]*Page
	now   func() time.Time
}

// New creates a cache with the given TTL. A non-positive ttl falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:   ttl,
		pages: make(map[string]*Page),
		now:   time.Now,
	}
}

// Get returns the cached page for url, or false when the entry is absent or
// older than the TTL. The cache does not self-evict on a timer; staleness is
// checked at read time and the caller is responsible for refetching.
func (c *Cache) Get(url string) (*Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	page, ok := c.pages[url]
	if !ok {
		return nil, false
	}
	if c.now().Sub(page.FetchedAt) > c.ttl {
		return nil, false
	}
	return page, true
}

// Put stores or overwrites the entry for page.URL.
func (c *Cache) Put(page *Page) {
	if page == nil || page.URL == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[page.URL] = page
}

// Len returns the number of entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// SetClock overrides the time source. Test use only.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
