package behavior

import "time"

// OutcomeRecord captures how one tracked interaction actually ended, for
// offline comparison against what the engine inferred.
type OutcomeRecord struct {
	UserID                string    `json:"userId"`
	SessionID             string    `json:"sessionId"`
	RecordedAt            time.Time `json:"recordedAt"`
	CompletionTimeSeconds float64   `json:"completionTimeSeconds"`
	ErrorCount            int       `json:"errorCount"`
	SatisfactionScore     float64   `json:"satisfactionScore"`
}
