// Package performance provides operation timing and health tracking for the
// resonance engine.
package performance

import (
	"runtime"
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation   string         `json:"operation"` // e.g. "analysis:run", "session:rollover"
	UserID      string         `json:"userId,omitempty"`
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	Duration    time.Duration  `json:"duration"`
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	MemoryUsage int64          `json:"memoryUsage"`
	Completed   bool           `json:"completed"`
}

// Complete marks the operation as finished and calculates final metrics
func (m *Marker) Complete() {
	if m.Completed {
		return
	}

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.MemoryUsage = int64(memStats.Alloc)
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// EngineTracker groups the latest marker per inference pipeline stage.
type EngineTracker struct {
	Scoring    *Marker `json:"scoring,omitempty"`
	Matching   *Marker `json:"matching,omitempty"`
	Resolution *Marker `json:"resolution,omitempty"`
	Prediction *Marker `json:"prediction,omitempty"`
	Insight    *Marker `json:"insight,omitempty"`
}

// SessionTracker groups the latest marker per session operation.
type SessionTracker struct {
	Ingest      *Marker `json:"ingest,omitempty"`
	Rollover    *Marker `json:"rollover,omitempty"`
	Aggregation *Marker `json:"aggregation,omitempty"`
}

// ReportTracker groups the latest marker per reporting operation.
type ReportTracker struct {
	OutcomeRecord *Marker `json:"outcomeRecord,omitempty"`
	OutcomeExport *Marker `json:"outcomeExport,omitempty"`
}

// PerformanceSnapshot represents a point-in-time view of system performance
type PerformanceSnapshot struct {
	Timestamp           time.Time       `json:"timestamp"`
	Engine              *EngineTracker  `json:"engine,omitempty"`
	Session             *SessionTracker `json:"session,omitempty"`
	Report              *ReportTracker  `json:"report,omitempty"`
	OverallHealth       HealthStatus    `json:"overallHealth"`
	ActiveOperations    int             `json:"activeOperations"`
	CompletedOperations int             `json:"completedOperations"`
}

// HealthStatus represents the overall health of a system component
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)

// PerformanceAlert represents a performance threshold violation
type PerformanceAlert struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Severity     AlertSeverity  `json:"severity"`
	Operation    string         `json:"operation"`
	Threshold    time.Duration  `json:"threshold"`
	Actual       time.Duration  `json:"actual"`
	Message      string         `json:"message"`
	Metadata     map[string]any `json:"metadata"`
	Acknowledged bool           `json:"acknowledged"`
}

// AlertSeverity represents the severity level of a performance alert
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)
