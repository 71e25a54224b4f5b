package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/logging"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/metrics"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
)

// ReportingService keeps a bounded in-memory buffer of interaction outcomes
// and exports them for offline analysis. Oldest records drop first once the
// buffer is full.
type ReportingService struct {
	outcomes    []behavior.OutcomeRecord
	limit       int
	mu          sync.Mutex
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewReportingService creates the reporting service with the given buffer
// limit.
func NewReportingService(limit int, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ReportingService {
	return &ReportingService{
		limit:       limit,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Record appends one outcome to the buffer.
func (r *ReportingService) Record(outcome behavior.OutcomeRecord, now time.Time) {
	marker := r.perfTracker.StartOperation("report:outcome:record", outcome.UserID)
	defer r.perfTracker.CompleteOperation(marker)

	if outcome.RecordedAt.IsZero() {
		outcome.RecordedAt = now
	}

	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	if r.limit > 0 && len(r.outcomes) > r.limit {
		r.outcomes = r.outcomes[len(r.outcomes)-r.limit:]
	}
	count := len(r.outcomes)
	r.mu.Unlock()

	metrics.OutcomesRecorded.Inc()
	if r.logger != nil {
		r.logger.Report().Debug("Outcome recorded",
			"userId", outcome.UserID,
			"errorCount", outcome.ErrorCount,
			"satisfaction", outcome.SatisfactionScore,
			"buffered", count,
		)
	}
}

// Outcomes returns a copy of the buffered records, oldest first.
func (r *ReportingService) Outcomes() []behavior.OutcomeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]behavior.OutcomeRecord, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// ExportCSV renders the buffered outcomes as CSV, one record per line with
// completion time, error count, and satisfaction as fixed-precision triples.
func (r *ReportingService) ExportCSV() string {
	marker := r.perfTracker.StartOperation("report:outcome:export", "")
	defer r.perfTracker.CompleteOperation(marker)

	outcomes := r.Outcomes()
	var b strings.Builder
	b.WriteString("userId,sessionId,recordedAt,completionTimeSeconds,errorCount,satisfactionScore\n")
	for _, o := range outcomes {
		fmt.Fprintf(&b, "%s,%s,%s,%.2f,%d,%.2f\n",
			o.UserID,
			o.SessionID,
			o.RecordedAt.UTC().Format(time.RFC3339),
			o.CompletionTimeSeconds,
			o.ErrorCount,
			o.SatisfactionScore,
		)
	}
	marker.AddMetadata("records", len(outcomes))
	return b.String()
}

// ExportTriples renders the buffered outcomes as bare
// completion-time,error-count,satisfaction lines with no header, the format
// the external results summarizer consumes.
func (r *ReportingService) ExportTriples() string {
	var b strings.Builder
	for _, o := range r.Outcomes() {
		fmt.Fprintf(&b, "%.2f,%d,%.2f\n", o.CompletionTimeSeconds, o.ErrorCount, o.SatisfactionScore)
	}
	return b.String()
}

// EncodeProfile serializes a profile for transport or archival.
func EncodeProfile(profile *behavior.BehavioralProfile) ([]byte, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile %s: %w", profile.ID, err)
	}
	return data, nil
}

// DecodeProfile is the inverse of EncodeProfile.
func DecodeProfile(data []byte) (*behavior.BehavioralProfile, error) {
	var profile behavior.BehavioralProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// EncodeInsight serializes a personalization insight bundle.
func EncodeInsight(insight behavior.PersonalizationInsight) ([]byte, error) {
	data, err := json.Marshal(insight)
	if err != nil {
		return nil, fmt.Errorf("failed to encode insight for user %s: %w", insight.UserID, err)
	}
	return data, nil
}

// DecodeInsight is the inverse of EncodeInsight.
func DecodeInsight(data []byte) (behavior.PersonalizationInsight, error) {
	var insight behavior.PersonalizationInsight
	if err := json.Unmarshal(data, &insight); err != nil {
		return behavior.PersonalizationInsight{}, fmt.Errorf("failed to decode insight: %w", err)
	}
	return insight, nil
}
