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

// ReportHandlers serves outcome recording and export.
type ReportHandlers struct {
	reportingService *services.ReportingService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewReportHandlers creates report handlers with injected dependencies
func NewReportHandlers(reportingService *services.ReportingService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ReportHandlers {
	return &ReportHandlers{
		reportingService: reportingService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// OutcomeRequest is the body of POST /api/v1/outcomes.
type OutcomeRequest struct {
	UserID                string  `json:"userId" binding:"required"`
	SessionID             string  `json:"sessionId"`
	CompletionTimeSeconds float64 `json:"completionTimeSeconds"`
	ErrorCount            int     `json:"errorCount"`
	SatisfactionScore     float64 `json:"satisfactionScore"`
}

// PostOutcome handles POST /api/v1/outcomes - records one interaction
// outcome.
func (h *ReportHandlers) PostOutcome(c *gin.Context) {
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.HTTP().Error("Invalid outcome request", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if req.SatisfactionScore < 0 || req.SatisfactionScore > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "satisfactionScore must be in [0,1]"})
		return
	}

	h.reportingService.Record(behavior.OutcomeRecord{
		UserID:                req.UserID,
		SessionID:             req.SessionID,
		CompletionTimeSeconds: req.CompletionTimeSeconds,
		ErrorCount:            req.ErrorCount,
		SatisfactionScore:     req.SatisfactionScore,
	}, time.Now().UTC())

	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// GetOutcomesReport handles GET /api/v1/reports/outcomes - exports the
// buffered outcomes. The default is bare time,errors,satisfaction lines for
// the external summarizer; ?format=csv returns full records with a header
// and ?format=json returns JSON.
func (h *ReportHandlers) GetOutcomesReport(c *gin.Context) {
	switch c.Query("format") {
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="outcomes.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(h.reportingService.ExportCSV()))
	case "json":
		outcomes := h.reportingService.Outcomes()
		c.JSON(http.StatusOK, gin.H{
			"count":    len(outcomes),
			"outcomes": outcomes,
		})
	default:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(h.reportingService.ExportTriples()))
	}
}
