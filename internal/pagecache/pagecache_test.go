package pagecache

import (
	"testing"
	"time"
)

func TestCacheHitWithinTTL(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := New(DefaultTTL)
	cache.SetClock(func() time.Time { return base })

	cache.Put(&Page{URL: "https://example.com/", FetchedAt: base, OK: true, Text: "hello"})

	cache.SetClock(func() time.Time { return base.Add(5 * time.Minute) })
	page, ok := cache.Get("https://example.com/")
	if !ok {
		t.Fatal("expected cache hit at T+5m")
	}
	if page.Text != "hello" {
		t.Errorf("Text = %q, want %q", page.Text, "hello")
	}
}

func TestCacheMissAfterTTL(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := New(DefaultTTL)
	cache.SetClock(func() time.Time { return base })

	cache.Put(&Page{URL: "https://example.com/", FetchedAt: base, OK: true, Text: "hello"})

	cache.SetClock(func() time.Time { return base.Add(11 * time.Minute) })
	if _, ok := cache.Get("https://example.com/"); ok {
		t.Error("expected cache miss at T+11m")
	}
}

func TestCacheMissUnknownURL(t *testing.T) {
	cache := New(DefaultTTL)
	if _, ok := cache.Get("https://never-stored.example/"); ok {
		t.Error("expected miss for unknown url")
	}
}

func TestCachePutOverwrites(t *testing.T) {
	now := time.Now()
	cache := New(DefaultTTL)
	cache.Put(&Page{URL: "u", FetchedAt: now, Text: "old"})
	cache.Put(&Page{URL: "u", FetchedAt: now, Text: "new"})

	page, ok := cache.Get("u")
	if !ok {
		t.Fatal("expected hit")
	}
	if page.Text != "new" {
		t.Errorf("Text = %q, want %q", page.Text, "new")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCacheStoresFailures(t *testing.T) {
	now := time.Now()
	cache := New(DefaultTTL)
	cache.Put(&Page{URL: "u", FetchedAt: now, OK: false, StatusCode: 503})

	page, ok := cache.Get("u")
	if !ok {
		t.Fatal("failed fetches must be cached too")
	}
	if page.OK {
		t.Error("OK = true, want false")
	}
	if page.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", page.StatusCode)
	}
}
