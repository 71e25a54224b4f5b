package behavior

import "time"

// SessionMetrics aggregates one session's interaction volume.
type SessionMetrics struct {
	TotalDurationSeconds float64 `json:"totalDurationSeconds"`
	InteractionCount     int     `json:"interactionCount"`
	UniqueTargets        int     `json:"uniqueTargets"`
	AvgDwellSeconds      float64 `json:"avgDwellSeconds"`
	EngagementScore      float64 `json:"engagementScore"`
}

// SessionRecord is one completed or in-progress session in the per-user
// session history.
type SessionRecord struct {
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Metrics   SessionMetrics `json:"metrics"`
}

// LoyaltyIndicators holds the named loyalty component scores, each in [0,1].
type LoyaltyIndicators struct {
	ReturnFrequency       float64 `json:"returnFrequency"`
	EngagementDepth       float64 `json:"engagementDepth"`
	BehavioralConsistency float64 `json:"behavioralConsistency"`
	Composite             float64 `json:"composite"`
}

// NextSessionForecast predicts the shape of the user's next session.
type NextSessionForecast struct {
	ReturnProbability       float64 `json:"returnProbability"`
	ExpectedEngagement      float64 `json:"expectedEngagement"`
	ConversionLikelihood    float64 `json:"conversionLikelihood"`
	ExpectedDurationMinutes float64 `json:"expectedDurationMinutes"`
}

// MultiSessionInsight is derived from the session history on demand, never
// stored.
type MultiSessionInsight struct {
	JourneyStage  JourneyStage        `json:"journeyStage"`
	SessionCount  int                 `json:"sessionCount"`
	Progression   []JourneyStage      `json:"progression"`
	Loyalty       LoyaltyIndicators   `json:"loyaltyIndicators"`
	ChurnRisk     float64             `json:"churnRisk"`
	LifetimeValue float64             `json:"lifetimeValuePrediction"`
	NextSession   NextSessionForecast `json:"nextSessionForecast"`
}

// BehavioralSignature is a per-user aggregate fingerprint built from the
// event window and session history. Every field is computed from observed
// data; fields that need history carry the documented neutral default until
// enough sessions exist.
type BehavioralSignature struct {
	UserID                  string     `json:"userId"`
	AvgDwellSeconds         float64    `json:"avgDwellSeconds"`
	ScrollVelocityQuartiles [3]float64 `json:"scrollVelocityQuartiles"`
	RhythmMeanSeconds       float64    `json:"rhythmMeanSeconds"`
	RhythmStdSeconds        float64    `json:"rhythmStdSeconds"`
	RhythmMedianSeconds     float64    `json:"rhythmMedianSeconds"`
	DecisionSpeed           float64    `json:"decisionSpeed"`
	ExplorationDepth        float64    `json:"explorationDepth"`
	ComparisonTendency      float64    `json:"comparisonTendency"`
	ReturnFrequency         float64    `json:"returnFrequency"`
	SessionConsistency      float64    `json:"sessionConsistency"`
}
