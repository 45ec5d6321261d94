package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/gatherkit/gather/browser"
	"github.com/gatherkit/gather/extract"
	"github.com/gatherkit/gather/models"
)

// FetchOptions carries per-fetch settings derived from the request.
type FetchOptions struct {
	Timeout time.Duration
	Stealth bool
	Headers map[string]string
}

// FetchResult is the rendered output of one page fetch.
type FetchResult struct {
	HTML  string
	Title string
}

// Fetcher retrieves the rendered content of a single URL. The production
// implementation drives the warm browser; tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error)
}

// rodFetcher fetches pages through the shared warm browser, one
// disposable incognito context per fetch.
type rodFetcher struct {
	pool         *browser.Pool
	blockedTypes []string
}

// NewRodFetcher creates the browser-backed Fetcher.
func NewRodFetcher(pool *browser.Pool, blockedTypes []string) Fetcher {
	return &rodFetcher{pool: pool, blockedTypes: blockedTypes}
}

// Fetch lifecycle:
//
//  1. Timeout guard      – hard deadline on the entire operation
//  2. Page context       – fresh incognito context from the warm browser
//  3. DEFER: release     – context teardown on every exit path
//  4. Stealth injection  – mask navigator.webdriver etc. (before navigation)
//  5. Extra headers      – custom request headers (before navigation)
//  6. Resource blocking  – skip images/CSS/fonts/media (before navigation)
//  7. Navigate + wait    – page load, then DOM stability
//  8. Extract            – page.HTML() + document.title
//
// Steps 4-6 must precede navigation: stealth JS, headers, and request
// interception only apply to navigations that start after they are
// installed.
func (f *rodFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	pc, err := f.pool.NewPageContext()
	if err != nil {
		return nil, err
	}
	defer pc.Release()

	page := pc.Page

	if opts.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			return nil, models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				"stealth injection failed",
				evalErr,
			)
		}
	}

	if len(opts.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(opts.Headers),
		}.Call(page)
	}

	router := browser.BlockResources(page, f.blockedTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	if navErr := p.Navigate(url); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// WaitRequestIdle conflicts with the hijack router's Fetch domain on
	// newer Chromium, so DOM stability is the wait strategy.
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "page did not settle before timeout")
		}
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	if title == "" {
		title = extract.Title(rawHTML)
	}

	return &FetchResult{HTML: rawHTML, Title: title}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string
// result, swallowing any errors (used for optional metadata).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so per-URL
// results carry a stable error taxonomy.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "fetch canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
