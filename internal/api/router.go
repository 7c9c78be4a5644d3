// Package api assembles the gin router: middleware chain, health and
// metrics endpoints, and the v1 feed surface.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/north-cloud/pulse/internal/handlers"
	"github.com/north-cloud/pulse/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const corsMaxAgeHours = 12

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Feed     handlers.FeedService
	Briefing handlers.Summarizer
	Regions  []string
	Defaults handlers.Defaults
	Quota    *Quota
	CORS     []string
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        corsMaxAgeHours * time.Hour,
	}))

	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	if cfg.Quota != nil {
		v1.Use(cfg.Quota.Middleware())
	}

	feedHandler := handlers.NewFeedHandler(cfg.Feed, cfg.Regions, cfg.Defaults, cfg.Logger)
	regionsHandler := handlers.NewRegionsHandler(cfg.Feed, cfg.Logger)

	v1.GET("/feed", feedHandler.Get)
	v1.GET("/regions", regionsHandler.List)

	if cfg.Briefing != nil {
		briefingHandler := handlers.NewBriefingHandler(cfg.Feed, cfg.Briefing, cfg.Defaults, cfg.Logger)
		v1.GET("/briefing", briefingHandler.Get)
	}

	return router
}
