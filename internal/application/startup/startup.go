// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/canvasthink/resonance-go/internal/application/container"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/logging"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
	"github.com/canvasthink/resonance-go/internal/infrastructure/templates"
	"github.com/canvasthink/resonance-go/internal/presentation/http/server"
	"github.com/canvasthink/resonance-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until
// shutdown.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Step 1: Structured logging
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Resonance engine starting")

	// Step 2: Template library. A broken library is fatal; the engine has
	// nothing to infer against without it.
	libStart := time.Now()
	lib, err := templates.Load(config.LibraryPath)
	if err != nil {
		logger.LogStartupPhase("template-library", time.Since(libStart), false, map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to load template library: %w", err)
	}
	logger.LogStartupPhase("template-library", time.Since(libStart), true, map[string]any{
		"version":   lib.Version,
		"templates": len(lib.Templates),
		"sequences": len(lib.Sequences),
	})

	// Step 3: Performance tracking
	perfTracker := performance.NewTracker(nil)
	go func() {
		ticker := time.NewTicker(performance.DefaultTrackerConfig().CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				perfTracker.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	// Step 4: Dependency injection container
	containerStart := time.Now()
	appContainer := container.NewContainer(lib, logger, perfTracker)
	defer appContainer.Close()
	logger.LogStartupPhase("container", time.Since(containerStart), true, nil)

	// Step 5: HTTP server
	serverStart := time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.LogStartupPhase("http-server", time.Since(serverStart), true, map[string]any{"port": config.Port})

	// Step 6: Graceful shutdown wiring
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return logger.Close()
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
