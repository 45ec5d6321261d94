package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gatherkit/gather/cache"
	"github.com/gatherkit/gather/config"
	"github.com/gatherkit/gather/extract"
	"github.com/gatherkit/gather/limiter"
	"github.com/gatherkit/gather/models"
)

// fakeFetcher serves canned pages and fails URLs containing ".invalid".
// It tracks peak concurrency so tests can assert the limiter cap.
type fakeFetcher struct {
	delay  time.Duration
	active atomic.Int32
	peak   atomic.Int32
	calls  atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if strings.Contains(url, ".invalid") {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "navigation to target URL failed", errors.New("dns lookup failed"))
	}
	return &FetchResult{
		HTML:  "<html><head><title>Page</title></head><body>body of " + url + "</body></html>",
		Title: "Page",
	}, nil
}

// passthroughExtractor skips the readability pipeline so orchestrator
// tests exercise ordering and counting, not extraction quality.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(rawHTML, sourceURL, format string) (extract.Extraction, error) {
	return extract.Extraction{Content: rawHTML}, nil
}

func testConfig() config.ScraperConfig {
	return config.ScraperConfig{
		MaxConcurrent:  5,
		DefaultTimeout: 30 * time.Second,
		MaxTimeout:     120 * time.Second,
		MaxBatchURLs:   100,
	}
}

func newTestOrchestrator(f Fetcher, capacity int, cc *cache.Cache) *Orchestrator {
	return New(f, limiter.New(capacity), passthroughExtractor{}, cc, testConfig())
}

func TestScrapeBatchPreservesOrder(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{delay: 5 * time.Millisecond}, 5, nil)

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/page-%d", i)
	}
	req := &models.ScrapeRequest{URLs: urls}
	req.Defaults()

	resp := o.ScrapeBatch(context.Background(), req)

	if len(resp.Results) != len(urls) {
		t.Fatalf("len(results) = %d, want %d", len(resp.Results), len(urls))
	}
	for i, r := range resp.Results {
		if r.URL != urls[i] {
			t.Errorf("results[%d].URL = %q, want %q (order must match input)", i, r.URL, urls[i])
		}
	}
}

func TestScrapeBatchCountsInvariant(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{}, 5, nil)

	req := &models.ScrapeRequest{URLs: []string{
		"https://example.com",
		"https://nonexistent.invalid",
		"https://example.org",
		"https://also-bad.invalid",
	}}
	req.Defaults()

	resp := o.ScrapeBatch(context.Background(), req)

	if resp.TotalURLs != 4 {
		t.Errorf("TotalURLs = %d, want 4", resp.TotalURLs)
	}
	if resp.Successful != 2 || resp.Failed != 2 {
		t.Errorf("Successful/Failed = %d/%d, want 2/2", resp.Successful, resp.Failed)
	}
	if resp.TotalURLs != resp.Successful+resp.Failed {
		t.Errorf("invariant broken: %d != %d + %d", resp.TotalURLs, resp.Successful, resp.Failed)
	}
	if resp.TotalURLs != len(resp.Results) {
		t.Errorf("TotalURLs %d != len(results) %d", resp.TotalURLs, len(resp.Results))
	}
}

// One failing URL must not prevent the others from succeeding.
func TestScrapeBatchFailureIsolation(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{}, 5, nil)

	req := &models.ScrapeRequest{URLs: []string{
		"https://example.com",
		"https://nonexistent.invalid",
	}}
	req.Defaults()

	resp := o.ScrapeBatch(context.Background(), req)

	first, second := resp.Results[0], resp.Results[1]
	if first.Status != models.StatusSuccess {
		t.Errorf("first result status = %q, want success", first.Status)
	}
	if first.Title == "" {
		t.Error("successful result should carry a title")
	}
	if second.Status != models.StatusFailed {
		t.Errorf("second result status = %q, want failed", second.Status)
	}
	if second.Error == "" {
		t.Error("failed result must carry an error message")
	}
	if second.Content != "" {
		t.Errorf("failed result should have empty content, got %q", second.Content)
	}
}

func TestScrapeBatchHonorsConcurrencyCap(t *testing.T) {
	const capacity = 2
	f := &fakeFetcher{delay: 20 * time.Millisecond}
	o := newTestOrchestrator(f, capacity, nil)

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/p%d", i)
	}
	req := &models.ScrapeRequest{URLs: urls}
	req.Defaults()

	o.ScrapeBatch(context.Background(), req)

	if got := f.peak.Load(); got > capacity {
		t.Errorf("peak concurrent fetches = %d, exceeds limiter capacity %d", got, capacity)
	}
}

func TestScrapeBatchServesFromCache(t *testing.T) {
	f := &fakeFetcher{}
	cc := cache.New(10)
	o := newTestOrchestrator(f, 5, cc)

	req := &models.ScrapeRequest{
		URLs:     []string{"https://example.com"},
		MaxAgeMs: 60000,
	}
	req.Defaults()

	first := o.ScrapeBatch(context.Background(), req)
	if first.Results[0].CacheStatus == "hit" {
		t.Fatal("first fetch cannot be a cache hit")
	}

	second := o.ScrapeBatch(context.Background(), req)
	if second.Results[0].CacheStatus != "hit" {
		t.Fatal("second fetch within max_age should hit the cache")
	}
	if f.calls.Load() != 1 {
		t.Errorf("fetcher called %d times, want 1", f.calls.Load())
	}
}

func TestTimeoutClampedToMax(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{}, 5, nil)

	req := &models.ScrapeRequest{Timeout: 999}
	if got := o.timeoutFor(req); got != o.cfg.MaxTimeout {
		t.Errorf("timeout = %v, want clamp to %v", got, o.cfg.MaxTimeout)
	}

	req = &models.ScrapeRequest{}
	if got := o.timeoutFor(req); got != o.cfg.DefaultTimeout {
		t.Errorf("timeout = %v, want default %v", got, o.cfg.DefaultTimeout)
	}
}

func TestErrMessageUsesErrorCode(t *testing.T) {
	err := models.NewScrapeError(models.ErrCodeTimeout, "navigation to target URL failed", context.DeadlineExceeded)
	got := errMessage(err)
	if !strings.HasPrefix(got, models.ErrCodeTimeout) {
		t.Errorf("errMessage = %q, want %s prefix", got, models.ErrCodeTimeout)
	}
}
