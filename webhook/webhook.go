// Package webhook delivers batch results to caller-supplied callback
// URLs. Delivery is fire-and-forget: it runs after the synchronous
// response has been written, and failures are logged, never surfaced to
// the original caller.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatherkit/gather/config"
)

// Client posts JSON payloads to callback endpoints.
type Client struct {
	cfg  config.WebhookConfig
	http *http.Client
}

// NewClient creates a callback delivery client.
func NewClient(cfg config.WebhookConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Deliver sends one payload synchronously. The request body is signed
// with HMAC-SHA256 when a secret is configured.
// Header: X-Gather-Signature: sha256=<hex>
func (c *Client) Deliver(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Gather-Callback/1.0")

	if c.cfg.Secret != "" {
		mac := hmac.New(sha256.New, []byte(c.cfg.Secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Gather-Signature", "sha256="+sig)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a payload in a detached goroutine with up to 3
// retries. Retry intervals: 1s, 5s, 30s. Exhausted retries are logged
// and dropped; the synchronous response already carried the results.
func (c *Client) DeliverAsync(url string, payload any) {
	go func() {
		delays := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
			err := c.Deliver(ctx, url, payload)
			cancel()
			if err == nil {
				slog.Info("callback delivered", "url", url, "attempt", attempt+1)
				return
			}
			slog.Warn("callback delivery failed",
				"url", url,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("callback delivery exhausted all retries", "url", url)
	}()
}
