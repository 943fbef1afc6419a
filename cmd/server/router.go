package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/industria/api/internal/auth"
	"github.com/industria/api/internal/config"
	"github.com/industria/api/internal/handlers"
	"github.com/industria/api/internal/logger"
	"github.com/industria/api/internal/metrics"
	"github.com/industria/api/internal/middleware"
	"github.com/industria/api/internal/ratelimit"
	"github.com/industria/api/internal/services"
)

// routerDeps holds everything the HTTP layer needs.
type routerDeps struct {
	log      *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	db       handlers.Pinger
	auth     *auth.Middleware
	limiter  *ratelimit.Limiter // nil disables rate limiting
	zones    services.ZoneService
	parcels  services.ParcelService
}

func newRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	handlers.SetupValidator()

	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> SecurityHeaders -> CORS -> Metrics
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.log))
	router.Use(middleware.Recovery(deps.log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.Metrics(deps.metrics))

	healthHandler := handlers.NewHealthHandler(deps.db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", handlers.Metrics(deps.gatherer))

	zoneHandler := handlers.NewZoneHandler(deps.zones)
	parcelHandler := handlers.NewParcelHandler(deps.parcels)

	v1 := router.Group("/api/v1")
	v1.GET("/info", healthHandler.Info)

	api := v1.Group("")
	api.Use(deps.auth.Authenticate())
	if deps.limiter != nil {
		api.Use(deps.limiter.Middleware())
	}

	admin := deps.auth.RequireAdmin()
	{
		zones := api.Group("/zones")
		{
			zones.GET("", zoneHandler.List)
			zones.POST("", admin, zoneHandler.Create)
			zones.GET("/:id", zoneHandler.Get)
			zones.PUT("/:id", admin, zoneHandler.Update)
			zones.DELETE("/:id", admin, zoneHandler.Delete)
			zones.PATCH("/:id/status", admin, zoneHandler.UpdateStatus)
			zones.GET("/:id/parcels", zoneHandler.Parcels)
		}

		parcels := api.Group("/parcels")
		{
			parcels.GET("", parcelHandler.List)
			parcels.POST("", admin, parcelHandler.Create)
			parcels.GET("/:id", parcelHandler.Get)
			parcels.PUT("/:id", admin, parcelHandler.Update)
			parcels.DELETE("/:id", admin, parcelHandler.Delete)
			parcels.PATCH("/:id/status", admin, parcelHandler.UpdateStatus)
		}
	}

	return router
}
