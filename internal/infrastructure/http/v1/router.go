// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"cmsearch/internal/infrastructure/http/v1/handlers"
	"cmsearch/internal/infrastructure/http/v1/middleware"
	"cmsearch/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// DB is pinged by the readiness probe
	DB handlers.Pinger

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Search is the engine entry point
	Search handlers.SearchService

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	{
		searchHandler := handlers.NewSearchHandler(cfg.Search)
		v1.POST("/search", searchHandler.Search)
	}

	return router
}
