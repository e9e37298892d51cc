// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/arifi89/inventory-optimization/internal/api/handlers"
	"github.com/arifi89/inventory-optimization/internal/api/middleware"
	"github.com/arifi89/inventory-optimization/internal/drive"
	"github.com/arifi89/inventory-optimization/internal/service"
)

type Services struct {
	MasterService *service.MasterService

	// Drive services are nil when no credentials are configured; the
	// drive routes are simply not registered in that case.
	DriveService *drive.Service
	DriveSync    *drive.SyncService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.MasterService != nil {
		masterHandler := handlers.NewMasterHandler(services.MasterService)
		masterGroup := apiGroup.Group("/analytics/master")
		{
			masterGroup.GET("/segments", masterHandler.GetSegments)
			masterGroup.GET("/records", masterHandler.GetRecords)
			masterGroup.GET("/dashboard", masterHandler.GetDashboard)
			masterGroup.GET("/quality", masterHandler.GetQuality)
			masterGroup.GET("/available_dates", masterHandler.GetAvailableDates)
		}
	}

	if services != nil && services.DriveService != nil && services.DriveSync != nil {
		driveHandler := handlers.NewDriveHandler(services.DriveService, services.DriveSync)
		driveGroup := apiGroup.Group("/drive")
		{
			driveGroup.GET("/files", driveHandler.ListFiles)
			driveGroup.GET("/files/download", driveHandler.DownloadFile)
			driveGroup.POST("/sync", driveHandler.SyncFolder)
			driveGroup.POST("/files/fetch", driveHandler.FetchFile)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
