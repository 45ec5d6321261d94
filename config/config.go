package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Embed     EmbedConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080; PORT (hosting platform convention) wins over GATHER_PORT
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL applied to the whole browser.
	Proxy string

	// UserAgent overrides the user agent for all page contexts.
	UserAgent string
}

// ScraperConfig controls batch scraping behavior.
type ScraperConfig struct {
	// MaxConcurrent is the limiter capacity: the maximum number of
	// page fetches in flight at once.
	MaxConcurrent int // default: 5

	// DefaultTimeout is the per-URL fetch timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum per-URL timeout a client may request.
	MaxTimeout time.Duration // default: 120s

	// MaxBatchURLs caps the number of URLs accepted per /scrape call.
	MaxBatchURLs int // default: 100

	// BlockedResourceTypes lists page resource types never fetched
	// during navigation.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls API key authentication.
// Authentication is off unless at least one key is configured.
type AuthConfig struct {
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// CacheConfig controls the per-URL result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 1000
}

// WebhookConfig controls callback delivery.
type WebhookConfig struct {
	// Secret, when set, is used to HMAC-sign callback payloads.
	Secret string

	// Timeout is the per-attempt delivery timeout.
	Timeout time.Duration // default: 30s
}

// EmbedConfig controls the optional Ollama-backed embedding endpoint.
// The endpoint stays disabled unless Model is set.
type EmbedConfig struct {
	BaseURL string // default: "http://127.0.0.1:11434"
	Model   string // e.g. "bge-small-en-v1.5"; empty disables /embed
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	port := envIntOr("GATHER_PORT", 8080)
	if v := os.Getenv("PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			port = i
		}
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("GATHER_HOST", "0.0.0.0"),
			Port: port,
			Mode: envOr("GATHER_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("GATHER_HEADLESS", true),
			NoSandbox:  envBoolOr("GATHER_NO_SANDBOX", false),
			BrowserBin: os.Getenv("GATHER_BROWSER_BIN"),
			Proxy:      os.Getenv("GATHER_PROXY"),
			UserAgent:  os.Getenv("GATHER_USER_AGENT"),
		},
		Scraper: ScraperConfig{
			MaxConcurrent:  envIntOr("GATHER_MAX_CONCURRENT", 5),
			DefaultTimeout: envDurationOr("GATHER_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:     envDurationOr("GATHER_MAX_TIMEOUT", 120*time.Second),
			MaxBatchURLs:   envIntOr("GATHER_MAX_BATCH_URLS", 100),
			BlockedResourceTypes: envSliceOr("GATHER_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("GATHER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("GATHER_RATE_RPS", 5.0),
			Burst:             envIntOr("GATHER_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("GATHER_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			Secret:  os.Getenv("GATHER_WEBHOOK_SECRET"),
			Timeout: envDurationOr("GATHER_WEBHOOK_TIMEOUT", 30*time.Second),
		},
		Embed: EmbedConfig{
			BaseURL: envOr("GATHER_OLLAMA_URL", "http://127.0.0.1:11434"),
			Model:   os.Getenv("GATHER_EMBED_MODEL"),
		},
		Log: LogConfig{
			Level:  envOr("GATHER_LOG_LEVEL", "info"),
			Format: envOr("GATHER_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
