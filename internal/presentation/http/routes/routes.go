// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/canvasthink/resonance-go/internal/application/container"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/metrics"
	"github.com/canvasthink/resonance-go/internal/presentation/http/handlers"
	"github.com/canvasthink/resonance-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())
	r.Use(metrics.Middleware())

	// Initialize handlers
	analysisHandlers := handlers.NewAnalysisHandlers(container.AnalysisService, container.SessionService, container.Logger, container.PerfTracker)
	profileHandlers := handlers.NewProfileHandlers(container.AnalysisService, container.SessionService, container.Logger, container.PerfTracker)
	reportHandlers := handlers.NewReportHandlers(container.ReportingService, container.Logger, container.PerfTracker)
	healthHandlers := handlers.NewHealthHandlers(container.UserStore, container.PerfTracker)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	{
		api.POST("/analyze", analysisHandlers.PostAnalyze)
		api.POST("/events", analysisHandlers.PostEvents)
		api.GET("/profile/:userId", profileHandlers.GetProfile)
		api.GET("/insights/:userId", profileHandlers.GetInsights)
		api.POST("/outcomes", reportHandlers.PostOutcome)
		api.GET("/reports/outcomes", reportHandlers.GetOutcomesReport)
		api.GET("/health", healthHandlers.GetHealth)
	}

	return r
}
