package models

// Result status values for a single URL within a batch.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ScrapeResult is the outcome of fetching and extracting a single URL.
type ScrapeResult struct {
	// URL is the input URL this result corresponds to.
	URL string `json:"url"`

	// Title is the rendered page title. Empty when unavailable.
	Title string `json:"title"`

	// Content is the extracted text in the requested format.
	// Empty when the fetch failed.
	Content string `json:"content"`

	// Status is "success" or "failed".
	Status string `json:"status"`

	// Error describes why the fetch failed. Only set when Status is "failed".
	Error string `json:"error,omitempty"`

	// CacheStatus is "hit" when the result was served from the cache.
	CacheStatus string `json:"cache_status,omitempty"`

	// DurationMs is the time spent fetching and extracting this URL.
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// BatchResponse is the response for POST /scrape and the callback payload.
// Results preserve the order of the input URLs.
//
// Invariant: TotalURLs == Successful + Failed == len(Results).
type BatchResponse struct {
	Results    []ScrapeResult `json:"results"`
	TotalURLs  int            `json:"total_urls"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status      string    `json:"status"` // "healthy" or "unhealthy"
	BrowserWarm bool      `json:"browser_warm"`
	Uptime      string    `json:"uptime,omitempty"`
	Pool        PoolStats `json:"pool"`
	Version     string    `json:"version,omitempty"`
}

// PoolStats reports limiter and browser utilisation.
type PoolStats struct {
	MaxConcurrent int `json:"max_concurrent"`
	ActiveFetches int `json:"active_fetches"`
}

// EmbedResponse is the response for POST /embed and its callback payload.
type EmbedResponse struct {
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding,omitempty"`
	Status    string    `json:"status"` // "success" or "error"
	Error     string    `json:"error,omitempty"`
}

// ErrorResponse is the body returned for request-level failures
// (validation, auth, rate limiting). Batch-level partial failures are
// reported per result inside BatchResponse instead.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
