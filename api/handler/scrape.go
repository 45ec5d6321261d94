package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherkit/gather/models"
)

// BatchScraper runs scrape batches; implemented by scraper.Orchestrator.
type BatchScraper interface {
	ScrapeBatch(ctx context.Context, req *models.ScrapeRequest) *models.BatchResponse
	Stats() models.PoolStats
}

// CallbackSender posts payloads to callback URLs after the synchronous
// response; implemented by webhook.Client.
type CallbackSender interface {
	DeliverAsync(url string, payload any)
}

// Scrape returns a handler for POST /scrape.
//
// The batch runs synchronously: the handler blocks until every URL has
// a result and returns the full BatchResponse. When a callback_url is
// supplied, an equivalent payload is also posted asynchronously after
// the response is written.
func Scrape(sc BatchScraper, cb CallbackSender, maxBatchURLs int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		if len(req.URLs) > maxBatchURLs {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: fmt.Sprintf("maximum %d URLs per batch", maxBatchURLs),
				},
			})
			return
		}
		req.Defaults()

		slog.Info("scrape batch accepted",
			"urls", len(req.URLs),
			"callback", req.CallbackURL != "",
		)

		// The batch runs on a context detached from the request: the
		// per-fetch timeout is the only cancellation mechanism, and a
		// caller that disconnects after firing the batch must still get
		// real results on its callback_url.
		resp := sc.ScrapeBatch(context.WithoutCancel(c.Request.Context()), &req)

		if req.CallbackURL != "" {
			cb.DeliverAsync(req.CallbackURL, resp)
		}

		c.JSON(http.StatusOK, resp)
	}
}
