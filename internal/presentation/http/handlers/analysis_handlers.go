// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/canvasthink/resonance-go/internal/application/services"
	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/logging"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
)

// AnalysisHandlers contains the event ingest and inference HTTP handlers.
type AnalysisHandlers struct {
	analysisService *services.AnalysisService
	sessionService  *services.SessionService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewAnalysisHandlers creates analysis handlers with injected dependencies
func NewAnalysisHandlers(analysisService *services.AnalysisService, sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalysisHandlers {
	return &AnalysisHandlers{
		analysisService: analysisService,
		sessionService:  sessionService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// AnalyzeRequest is the body of POST /api/v1/analyze and POST /api/v1/events.
// SessionID is optional; when present it names the session the events belong
// to, otherwise idle-rollover picks one.
type AnalyzeRequest struct {
	UserID    string                      `json:"userId" binding:"required"`
	SessionID string                      `json:"sessionId"`
	Events    []behavior.InteractionEvent `json:"events"`
}

// PostAnalyze handles POST /api/v1/analyze - ingests events, runs the full
// inference pipeline, and returns the resolved profile, the cross-session
// insight, and the personalization bundle.
func (h *AnalysisHandlers) PostAnalyze(c *gin.Context) {
	marker := h.perfTracker.StartOperation("analysis:request", "")
	defer marker.Complete()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.HTTP().Error("Invalid analyze request", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required and events must be well-formed"})
		return
	}

	now := time.Now().UTC()
	result := h.analysisService.Analyze(req.UserID, req.SessionID, req.Events, now)
	multiSession, _ := h.sessionService.Aggregate(req.UserID, now)

	c.JSON(http.StatusOK, gin.H{
		"behavioralProfile":   result.Profile,
		"multiSessionInsight": multiSession,
		"personalization":     result.Insight,
	})
}

// PostEvents handles POST /api/v1/events - appends events to the user's
// window without running inference.
func (h *AnalysisHandlers) PostEvents(c *gin.Context) {
	marker := h.perfTracker.StartOperation("events:request", "")
	defer marker.Complete()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.HTTP().Error("Invalid events request", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required and events must be well-formed"})
		return
	}
	if len(req.Events) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one event is required"})
		return
	}

	accepted := h.analysisService.Ingest(req.UserID, req.SessionID, req.Events, time.Now().UTC())
	c.JSON(http.StatusAccepted, gin.H{"accepted": accepted})
}
