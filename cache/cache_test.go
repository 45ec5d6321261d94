package cache

import (
	"testing"

	"github.com/gatherkit/gather/models"
)

func TestGetMiss(t *testing.T) {
	c := New(10)
	if _, ok := c.Get(Key("https://example.com", "text"), 60000); ok {
		t.Fatal("empty cache should miss")
	}
}

func TestSetAndGet(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", "text")
	c.Set(key, models.ScrapeResult{
		URL:     "https://example.com",
		Title:   "Example",
		Content: "hello",
		Status:  models.StatusSuccess,
	})

	got, ok := c.Get(key, 60000)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Title != "Example" || got.Content != "hello" {
		t.Errorf("unexpected cached result: %+v", got)
	}
}

func TestGetDisabledWhenMaxAgeZero(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", "text")
	c.Set(key, models.ScrapeResult{URL: "https://example.com", Status: models.StatusSuccess})

	if _, ok := c.Get(key, 0); ok {
		t.Fatal("maxAgeMs 0 must disable lookup")
	}
}

func TestFailedResultsNotCached(t *testing.T) {
	c := New(10)
	key := Key("https://nonexistent.invalid", "text")
	c.Set(key, models.ScrapeResult{
		URL:    "https://nonexistent.invalid",
		Status: models.StatusFailed,
		Error:  "navigation failed",
	})

	if _, ok := c.Get(key, 60000); ok {
		t.Fatal("failed results must not be cached")
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	c := New(2)
	c.Set("a", models.ScrapeResult{URL: "a", Status: models.StatusSuccess})
	c.Set("b", models.ScrapeResult{URL: "b", Status: models.StatusSuccess})
	c.Set("c", models.ScrapeResult{URL: "c", Status: models.StatusSuccess})

	c.mu.RLock()
	n := len(c.store)
	c.mu.RUnlock()
	if n > 2 {
		t.Errorf("cache grew past capacity: %d entries", n)
	}
}

func TestKeyDistinguishesFormat(t *testing.T) {
	if Key("https://example.com", "text") == Key("https://example.com", "markdown") {
		t.Error("keys for different formats must differ")
	}
}
