package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinsync/clinsync/internal/config"
	entityhandler "github.com/clinsync/clinsync/internal/handler/entity"
	healthhandler "github.com/clinsync/clinsync/internal/handler/health"
	"github.com/clinsync/clinsync/internal/middleware"
)

type Handlers struct {
	Entity *entityhandler.Handler
	Health *healthhandler.Handler
}

// New assembles the gin engine with the middleware chain and all routes.
func New(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		r.Use(limiter.Limit())
	}

	h.Health.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if cfg.JWT.Secret != "" {
		auth := middleware.NewAuthMiddleware(cfg.JWT.Secret)
		api.Use(auth.RequireAuth())
	}
	h.Entity.RegisterRoutes(api)

	return r
}
