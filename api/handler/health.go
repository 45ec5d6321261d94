package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatherkit/gather/models"
)

// HealthSource reports browser liveness; implemented by browser.Pool.
type HealthSource interface {
	Warm() bool
	Healthy() bool
	Uptime() time.Duration
}

// Health returns a handler for GET /health, used by the hosting
// platform's liveness probe. browser_warm flips true only after the
// browser pool finished initialisation; unhealthy responses carry a 503
// so the supervisor restarts the process.
func Health(hs HealthSource, sc BatchScraper, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		warm := hs.Warm()

		status := "healthy"
		code := http.StatusOK
		if !warm || !hs.Healthy() {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, models.HealthResponse{
			Status:      status,
			BrowserWarm: warm,
			Uptime:      hs.Uptime().Round(time.Second).String(),
			Pool:        sc.Stats(),
			Version:     version,
		})
	}
}
