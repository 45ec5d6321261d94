package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherkit/gather/models"
)

// Embedder generates embedding vectors; implemented by embed.Service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Embed returns a handler for POST /embed. em may be nil when no
// embedding model is configured; the endpoint then answers 503.
//
// Errors are reported both in the synchronous response and, when a
// callback_url was supplied, in the callback payload, so workflow
// consumers that only listen on the callback still see failures.
func Embed(em Embedder, cb CallbackSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		if em == nil {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    models.ErrCodeEmbedding,
					Message: "embedding is not configured on this instance",
				},
			})
			return
		}

		var req models.EmbedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		vector, err := em.Embed(c.Request.Context(), req.Text)
		if err != nil {
			resp := models.EmbedResponse{
				Text:   req.Text,
				Status: "error",
				Error:  err.Error(),
			}
			if req.CallbackURL != "" {
				cb.DeliverAsync(req.CallbackURL, resp)
			}
			c.JSON(http.StatusBadGateway, resp)
			return
		}

		resp := models.EmbedResponse{
			Text:      req.Text,
			Embedding: vector,
			Status:    "success",
		}
		if req.CallbackURL != "" {
			cb.DeliverAsync(req.CallbackURL, resp)
		}
		c.JSON(http.StatusOK, resp)
	}
}
