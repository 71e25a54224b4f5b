package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/canvasthink/resonance-go/internal/application/services"
	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/logging"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
)

// ProfileHandlers serves resolved profiles and cross-session insight.
type ProfileHandlers struct {
	analysisService *services.AnalysisService
	sessionService  *services.SessionService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewProfileHandlers creates profile handlers with injected dependencies
func NewProfileHandlers(analysisService *services.AnalysisService, sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProfileHandlers {
	return &ProfileHandlers{
		analysisService: analysisService,
		sessionService:  sessionService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// GetProfile handles GET /api/v1/profile/:userId - returns the newest
// resolved profile, with optional ?history=N recent profiles. Unknown users
// get the neutral default profile rather than an error.
func (h *ProfileHandlers) GetProfile(c *gin.Context) {
	userID := c.Param("userId")
	marker := h.perfTracker.StartOperation("profile:request", userID)
	defer marker.Complete()

	profile, ok := h.analysisService.LatestProfile(userID)
	if !ok {
		fallback := behavior.DefaultProfile(userID, "", time.Now().UTC())
		profile = &fallback
	}

	response := gin.H{"profile": profile}
	if historyParam := c.Query("history"); historyParam != "" {
		limit, err := strconv.Atoi(historyParam)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "history must be a non-negative integer"})
			return
		}
		response["history"] = h.analysisService.ProfileHistory(userID, limit)
	}
	c.JSON(http.StatusOK, response)
}

// GetInsights handles GET /api/v1/insights/:userId - returns the
// multi-session insight and behavioral signature for a user.
func (h *ProfileHandlers) GetInsights(c *gin.Context) {
	userID := c.Param("userId")
	marker := h.perfTracker.StartOperation("insights:request", userID)
	defer marker.Complete()

	now := time.Now().UTC()
	insight, ok := h.sessionService.Aggregate(userID, now)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no state for user"})
		return
	}
	signature, _ := h.sessionService.Signature(userID, now)

	c.JSON(http.StatusOK, gin.H{
		"multiSession": insight,
		"signature":    signature,
	})
}
