package models

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	// URLs is the ordered list of target pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1,dive,url"`

	// CallbackURL, when set, receives an asynchronous POST of the
	// BatchResponse after the batch completes.
	CallbackURL string `json:"callback_url,omitempty" binding:"omitempty,url"`

	// Timeout is the maximum duration in seconds for each URL's fetch
	// (navigation + rendering + extraction).
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions
	// (e.g. navigator.webdriver masking).
	// Default: false.
	Stealth bool `json:"stealth,omitempty"`

	// Format controls the content field of each result.
	// Allowed: "text" (default), "markdown", "html".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=text markdown html"`

	// MaxAgeMs, when > 0, allows serving a URL's result from the cache
	// if a fetch completed within the last MaxAgeMs milliseconds.
	MaxAgeMs int `json:"max_age_ms,omitempty" binding:"omitempty,min=0"`

	// Headers are extra HTTP headers applied to every page navigation.
	Headers map[string]string `json:"headers,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.Format == "" {
		r.Format = "text"
	}
}

// EmbedRequest is the payload for POST /embed.
type EmbedRequest struct {
	// Text is the content to embed. Required.
	Text string `json:"text" binding:"required"`

	// CallbackURL, when set, receives an asynchronous POST of the
	// EmbedResponse after generation.
	CallbackURL string `json:"callback_url,omitempty" binding:"omitempty,url"`
}
