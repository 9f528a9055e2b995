package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/invdash/internal/api/handlers"
	"github.com/andresuchdata/invdash/internal/api/middleware"
	"github.com/andresuchdata/invdash/internal/service"
)

func NewRouter(svc *service.DashboardService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Export-Key"},
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

	if svc == nil {
		return router
	}

	apiGroup := router.Group("/api/v1")

	dashboardHandler := handlers.NewDashboardHandler(svc)
	apiGroup.GET("/dashboard", dashboardHandler.GetDashboard)
	apiGroup.POST("/dataset/reload", dashboardHandler.ReloadDataset)

	tableHandler := handlers.NewTableHandler(svc)
	tableGroup := apiGroup.Group("/tables")
	{
		tableGroup.POST("", tableHandler.CreateTable)
		tableGroup.GET("/:id", tableHandler.GetTable)
		tableGroup.DELETE("/:id", tableHandler.DeleteTable)
		tableGroup.POST("/:id/filter", tableHandler.Filter)
		tableGroup.POST("/:id/sort", tableHandler.Sort)
		tableGroup.GET("/:id/export.csv", tableHandler.ExportCSV)
		tableGroup.GET("/:id/export.xlsx", tableHandler.ExportXLSX)
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
