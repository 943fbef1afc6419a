package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/industria/api/internal/auth"
	"github.com/industria/api/internal/config"
	"github.com/industria/api/internal/database"
	"github.com/industria/api/internal/geometry"
	"github.com/industria/api/internal/handlers"
	"github.com/industria/api/internal/logger"
	"github.com/industria/api/internal/metrics"
	"github.com/industria/api/internal/ratelimit"
	"github.com/industria/api/internal/repository"
	"github.com/industria/api/internal/services"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Industria API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.MigrateOnStart {
		if err := migrateUp(db, log); err != nil {
			log.Fatal("Failed to apply migrations", err, nil)
		}
	}

	authMiddleware, err := auth.NewMiddleware(cfg.Auth)
	if err != nil {
		log.Fatal("Failed to configure token verification", err, nil)
	}
	if !authMiddleware.Enabled() {
		log.Warn("Token verification is disabled; every caller is treated as admin", nil)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(cfg.RateLimit)
		if err != nil {
			log.Fatal("Failed to configure rate limiting", err, nil)
		}
		defer func() {
			if err := limiter.Close(); err != nil {
				log.Error("Failed to close rate limit store", err, nil)
			}
		}()
	}

	// Initialize repository and service layers
	deriver := geometry.NewDeriver(cfg.Geometry, log, m)
	uow := repository.NewUnitOfWork(db)
	zoneService := services.NewZoneService(uow, deriver, log, m)
	parcelService := services.NewParcelService(uow, deriver, log, m)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, routerDeps{
		log:      log,
		metrics:  m,
		gatherer: reg,
		db:       db,
		auth:     authMiddleware,
		limiter:  limiter,
		zones:    zoneService,
		parcels:  parcelService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

func migrateUp(db *database.Database, log *logger.Logger) error {
	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Warn("Failed to close migrator", map[string]interface{}{"error": err.Error()})
		}
	}()
	return migrator.Up()
}
