// Package api wires the HTTP surface: routes, middleware, handlers.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gatherkit/gather/api/handler"
	"github.com/gatherkit/gather/api/middleware"
	"github.com/gatherkit/gather/config"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if keys configured) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(sc handler.BatchScraper, hs handler.HealthSource, cb handler.CallbackSender, em handler.Embedder, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(hs, sc, Version))

	protected := r.Group("")
	protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(sc, cb, cfg.Scraper.MaxBatchURLs))
	protected.POST("/embed", handler.Embed(em, cb))

	return r
}
