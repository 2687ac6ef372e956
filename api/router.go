package api

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/oppscout/api/handler"
	"github.com/use-agent/oppscout/api/middleware"
	"github.com/use-agent/oppscout/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. Rate limiting
// only guards discovery; listings are cheap.
func NewRouter(cfg *config.Config, deps *handler.Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health needs no auth.
	v1.GET("/health", handler.Health(deps))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	protected.GET("/sources", handler.Sources(deps))
	protected.GET("/opportunities", handler.Opportunities(deps))
	protected.POST("/discover", middleware.RateLimit(cfg.RateLimit), handler.Discover(deps))

	return r
}
