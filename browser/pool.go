// Package browser owns the long-lived headless browser shared by all
// requests. The browser launches once at startup and stays warm for the
// process lifetime; each fetch gets a disposable incognito context so no
// page state leaks between unrelated requests.
package browser

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/gatherkit/gather/config"
	"github.com/gatherkit/gather/models"
)

// Pool manages the single shared browser instance.
// It is safe for concurrent use.
type Pool struct {
	browser   *rod.Browser
	cfg       config.BrowserConfig
	warm      atomic.Bool
	active    atomic.Int32
	startTime time.Time
}

// New launches a headless browser and connects to it. A launch or connect
// failure is fatal to the service: the caller should exit and let the
// hosting supervisor restart the process.
func New(cfg config.BrowserConfig) (*Pool, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	p := &Pool{
		browser:   b,
		cfg:       cfg,
		startTime: time.Now(),
	}
	p.warm.Store(true)
	slog.Info("browser pool ready", "headless", cfg.Headless)
	return p, nil
}

// PageContext is an isolated browsing context holding one page.
// It must be released after the fetch, on every exit path.
type PageContext struct {
	Page      *rod.Page
	incognito *rod.Browser
	pool      *Pool
}

// NewPageContext creates a fresh incognito context with a single blank
// page. The context shares the warm browser process but none of its
// cookies, storage, or cache.
func (p *Pool) NewPageContext() (*PageContext, error) {
	incognito, err := p.browser.Incognito()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to create browsing context",
			err,
		)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open page in browsing context",
			err,
		)
	}

	if p.cfg.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: p.cfg.UserAgent,
		})
	}

	p.active.Add(1)
	return &PageContext{Page: page, incognito: incognito, pool: p}, nil
}

// Release closes the page and tears down the incognito context. The
// original page reference is used (not a context-bound clone), so cleanup
// succeeds even after the fetch's context has expired.
func (c *PageContext) Release() {
	if err := c.Page.Close(); err != nil {
		slog.Warn("cleanup: failed to close page", "error", err)
	}
	c.pool.active.Add(-1)
}

// Healthy reports whether the browser process is still responsive.
func (p *Pool) Healthy() bool {
	if !p.warm.Load() {
		return false
	}
	_, err := proto.BrowserGetVersion{}.Call(p.browser)
	return err == nil
}

// Warm reports whether startup initialization has completed.
func (p *Pool) Warm() bool {
	return p.warm.Load()
}

// ActiveFetches returns the number of currently open page contexts.
func (p *Pool) ActiveFetches() int {
	return int(p.active.Load())
}

// Uptime returns the time since the browser launched.
func (p *Pool) Uptime() time.Duration {
	return time.Since(p.startTime)
}

// Close kills the browser process. Call this on graceful shutdown to
// prevent zombie Chrome processes.
func (p *Pool) Close() {
	p.warm.Store(false)
	slog.Info("browser pool shutting down")
	if err := p.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("browser pool shutdown complete")
}

// String identifies the pool in logs.
func (p *Pool) String() string {
	return fmt.Sprintf("browser-pool(active=%d)", p.ActiveFetches())
}
