// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arifi89/inventory-optimization/internal/api"
	"github.com/arifi89/inventory-optimization/internal/cache"
	"github.com/arifi89/inventory-optimization/internal/config"
	"github.com/arifi89/inventory-optimization/internal/drive"
	"github.com/arifi89/inventory-optimization/internal/repository"
	"github.com/arifi89/inventory-optimization/internal/repository/postgres"
	"github.com/arifi89/inventory-optimization/internal/service"
	"github.com/arifi89/inventory-optimization/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Initialize cache (noop when disabled)
	segmentCache, err := cache.NewSegmentCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to connect to Redis, running without cache")
		segmentCache = cache.NewNoopSegmentCache()
	}

	// Initialize services
	masterRepo := repository.NewMasterRepository(db.DB)
	masterService := service.NewMasterService(masterRepo, segmentCache)

	services := &api.Services{
		MasterService: masterService,
	}

	// Drive routes are only mounted when credentials are configured
	if cfg.Drive.CredentialsJSON != "" {
		driveService, err := drive.NewService(context.Background(), cfg.Drive.CredentialsJSON)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to initialize Drive service, drive routes disabled")
		} else {
			services.DriveService = driveService
			services.DriveSync = drive.NewSyncService(driveService, cfg.Pipeline.DataDir)
		}
	}

	// Initialize HTTP server
	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
