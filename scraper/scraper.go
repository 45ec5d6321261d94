// Package scraper orchestrates batch scraping: it fans URLs out under
// the concurrency limiter, fetches each through the warm browser, runs
// content extraction, and aggregates ordered per-URL results.
package scraper

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gatherkit/gather/cache"
	"github.com/gatherkit/gather/config"
	"github.com/gatherkit/gather/extract"
	"github.com/gatherkit/gather/limiter"
	"github.com/gatherkit/gather/models"
)

// Orchestrator runs scrape batches. It is safe for concurrent use; the
// limiter is shared process-wide, so concurrent batches contend for the
// same fetch slots.
type Orchestrator struct {
	fetcher   Fetcher
	limiter   *limiter.Limiter
	extractor extract.Extractor
	cache     *cache.Cache
	cfg       config.ScraperConfig
}

// New creates an Orchestrator. cc may be nil to disable result caching.
func New(fetcher Fetcher, lim *limiter.Limiter, ex extract.Extractor, cc *cache.Cache, cfg config.ScraperConfig) *Orchestrator {
	return &Orchestrator{
		fetcher:   fetcher,
		limiter:   lim,
		extractor: ex,
		cache:     cc,
		cfg:       cfg,
	}
}

// Stats reports limiter utilisation for the health endpoint.
func (o *Orchestrator) Stats() models.PoolStats {
	return models.PoolStats{
		MaxConcurrent: o.limiter.Capacity(),
		ActiveFetches: o.limiter.InUse(),
	}
}

// ScrapeBatch processes every URL in the request and returns results in
// input order. One URL's failure never aborts the batch; failures are
// recorded in that URL's result and processing continues.
func (o *Orchestrator) ScrapeBatch(ctx context.Context, req *models.ScrapeRequest) *models.BatchResponse {
	start := time.Now()
	results := make([]models.ScrapeResult, len(req.URLs))

	var wg sync.WaitGroup
	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			results[idx] = o.scrapeOne(ctx, targetURL, req)
		}(i, rawURL)
	}
	wg.Wait()

	resp := &models.BatchResponse{
		Results:   results,
		TotalURLs: len(req.URLs),
	}
	for _, r := range results {
		if r.Status == models.StatusSuccess {
			resp.Successful++
		} else {
			resp.Failed++
		}
	}

	slog.Info("batch finished",
		"total", resp.TotalURLs,
		"successful", resp.Successful,
		"failed", resp.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return resp
}

// scrapeOne fetches and extracts a single URL under the limiter.
// The slot is held only for the fetch+extract, never for cache hits.
func (o *Orchestrator) scrapeOne(ctx context.Context, targetURL string, req *models.ScrapeRequest) models.ScrapeResult {
	start := time.Now()
	targetURL = strings.TrimSpace(targetURL)

	var cacheKey string
	if o.cache != nil && req.MaxAgeMs > 0 {
		cacheKey = cache.Key(targetURL, req.Format)
		if cached, hit := o.cache.Get(cacheKey, req.MaxAgeMs); hit {
			cached.CacheStatus = "hit"
			cached.DurationMs = time.Since(start).Milliseconds()
			return cached
		}
	}

	if err := o.limiter.Acquire(ctx); err != nil {
		return failedResult(targetURL, start,
			models.NewScrapeError(models.ErrCodeTimeout, "canceled while waiting for a fetch slot", err))
	}
	defer o.limiter.Release()

	fetched, err := o.fetcher.Fetch(ctx, targetURL, FetchOptions{
		Timeout: o.timeoutFor(req),
		Stealth: req.Stealth,
		Headers: req.Headers,
	})
	if err != nil {
		return failedResult(targetURL, start, err)
	}

	extraction, err := o.extractor.Extract(fetched.HTML, targetURL, req.Format)
	if err != nil {
		return failedResult(targetURL, start, err)
	}

	title := extraction.Title
	if title == "" {
		title = fetched.Title
	}

	result := models.ScrapeResult{
		URL:        targetURL,
		Title:      title,
		Content:    extraction.Content,
		Status:     models.StatusSuccess,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if o.cache != nil && cacheKey != "" {
		o.cache.Set(cacheKey, result)
	}
	return result
}

// timeoutFor clamps the requested per-URL timeout to the configured max.
func (o *Orchestrator) timeoutFor(req *models.ScrapeRequest) time.Duration {
	timeout := time.Duration(req.Timeout) * time.Second
	if timeout <= 0 {
		timeout = o.cfg.DefaultTimeout
	}
	if timeout > o.cfg.MaxTimeout {
		timeout = o.cfg.MaxTimeout
	}
	return timeout
}

func failedResult(targetURL string, start time.Time, err error) models.ScrapeResult {
	slog.Warn("scrape failed", "url", targetURL, "error", err)
	return models.ScrapeResult{
		URL:        targetURL,
		Status:     models.StatusFailed,
		Error:      errMessage(err),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// errMessage prefers the ScrapeError code+message over raw error chains,
// keeping per-URL error strings stable for API consumers.
func errMessage(err error) string {
	if se, ok := err.(*models.ScrapeError); ok {
		return se.Code + ": " + se.Message
	}
	return err.Error()
}
