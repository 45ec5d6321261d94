package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gatherkit/gather/config"
	"github.com/gatherkit/gather/models"
)

type stubScraper struct{}

func (stubScraper) ScrapeBatch(ctx context.Context, req *models.ScrapeRequest) *models.BatchResponse {
	return &models.BatchResponse{
		Results:    []models.ScrapeResult{{URL: req.URLs[0], Status: models.StatusSuccess}},
		TotalURLs:  1,
		Successful: 1,
	}
}

func (stubScraper) Stats() models.PoolStats { return models.PoolStats{MaxConcurrent: 5} }

type stubHealth struct{}

func (stubHealth) Warm() bool            { return true }
func (stubHealth) Healthy() bool         { return true }
func (stubHealth) Uptime() time.Duration { return time.Minute }

type stubCallback struct{}

func (stubCallback) DeliverAsync(url string, payload any) {}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Scraper.MaxBatchURLs = 100
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	return cfg
}

func TestHealthOpenWithoutAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.APIKeys = []string{"secret-key"}
	r := NewRouter(stubScraper{}, stubHealth{}, stubCallback{}, nil, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("health with auth configured but no key: status = %d, want 200", w.Code)
	}
}

func TestScrapeRequiresAuthWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.APIKeys = []string{"secret-key"}
	r := NewRouter(stubScraper{}, stubHealth{}, stubCallback{}, nil, cfg)

	body := `{"urls": ["https://example.com"]}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad key: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid bearer key: status = %d, want 200", w.Code)
	}
}

func TestScrapeOpenWithoutKeys(t *testing.T) {
	r := NewRouter(stubScraper{}, stubHealth{}, stubCallback{}, nil, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(`{"urls": ["https://example.com"]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestEmbedDisabledViaRouter(t *testing.T) {
	r := NewRouter(stubScraper{}, stubHealth{}, stubCallback{}, nil, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/embed", strings.NewReader(`{"text": "hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
