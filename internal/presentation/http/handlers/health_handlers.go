package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
	"github.com/canvasthink/resonance-go/internal/infrastructure/userstate"
)

// HealthHandlers serves liveness and engine health.
type HealthHandlers struct {
	userStore   *userstate.Store
	perfTracker *performance.Tracker
	started     time.Time
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(userStore *userstate.Store, perfTracker *performance.Tracker) *HealthHandlers {
	return &HealthHandlers{
		userStore:   userStore,
		perfTracker: perfTracker,
		started:     time.Now(),
	}
}

// GetHealth handles GET /api/v1/health.
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	snapshot := h.perfTracker.TakeSnapshot()

	status := http.StatusOK
	if snapshot.OverallHealth == performance.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":        snapshot.OverallHealth,
		"uptimeSeconds": int(time.Since(h.started).Seconds()),
		"trackedUsers":  h.userStore.Count(),
		"performance":   snapshot,
	})
}
