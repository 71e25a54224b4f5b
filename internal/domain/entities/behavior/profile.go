package behavior

import "time"

// Indicator names produced by the scorer and referenced by templates.
const (
	IndicatorDeepConsideration    = "deep_consideration"
	IndicatorQuickScanning        = "quick_scanning"
	IndicatorOverwhelmedScrolling = "overwhelmed_scrolling"
	IndicatorMethodicalReading    = "methodical_reading"
	IndicatorMethodicalBehavior   = "methodical_behavior"
	IndicatorImpulsiveBehavior    = "impulsive_behavior"
	IndicatorConfidentClicking    = "confident_clicking"
	IndicatorHesitantClicking     = "hesitant_clicking"
	IndicatorSessionContinuity    = "session_continuity"
	IndicatorComparisonTendency   = "comparison_tendency"
	IndicatorExplorationDepth     = "exploration_depth"
	IndicatorSearchRefinement     = "search_refinement"
	IndicatorSteadyRhythm         = "steady_rhythm"

	// Dwell-time band indicators. Exactly one carries the band confidence.
	IndicatorQuickGlance       = "quick_glance"
	IndicatorBriefInterest     = "brief_interest"
	IndicatorFocusedAttention  = "focused_attention"
	IndicatorDeepEngagement    = "deep_engagement"
	IndicatorIntensiveAnalysis = "intensive_analysis"

	// Dwell-sequence trend indicators.
	IndicatorEscalatingInterest   = "escalating_interest"
	IndicatorDiminishingInterest  = "diminishing_interest"
	IndicatorConsistentEngagement = "consistent_engagement"
	IndicatorErraticBehavior      = "erratic_behavior"

	// Scroll-velocity band indicators.
	IndicatorCasualScanning  = "casual_scanning"
	IndicatorActiveSearching = "active_searching"
	IndicatorFranticBehavior = "frantic_behavior"
)

// IndicatorScores maps indicator names to values in [0,1]. A score set is
// recomputed fresh from an event window on every inference call.
type IndicatorScores map[string]float64

// GetOrZero returns the named score, or 0 when absent. An absent indicator
// never contributes evidence.
func (s IndicatorScores) GetOrZero(name string) float64 {
	return s[name]
}

// CandidateState is a template whose evidence passed its threshold, produced
// per inference call.
type CandidateState struct {
	State    State   `json:"state"`
	Evidence float64 `json:"evidence"`
}

// BehavioralProfile is the resolved output of one inference call. Profiles
// are appended to a per-user history which is never rewritten; stability and
// momentum are computed from that history alone.
type BehavioralProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	SessionID      string    `json:"sessionId"`
	CreatedAt      time.Time `json:"createdAt"`
	PrimaryState   State     `json:"primaryState"`
	SecondaryState State     `json:"secondaryState"`
	Intensity      Intensity `json:"intensity"`
	Confidence     float64   `json:"confidence"`
	Stability      float64   `json:"stability"`
	Momentum       float64   `json:"momentum"`
	MicroStates    []State   `json:"microStates"`

	TransitionProbabilities map[State]float64 `json:"transitionProbabilities"`
	PredictedNextState      State             `json:"predictedNextState"`

	JourneyStage      JourneyStage      `json:"journeyStage"`
	Triggers          []string          `json:"triggers"`
	ContextualFactors map[string]string `json:"contextualFactors"`
	Indicators        IndicatorScores   `json:"indicators"`
}

// DefaultProfile is the documented outcome for an empty or missing event
// window: neutral state, medium intensity, confidence and stability at 0.5.
func DefaultProfile(userID, sessionID string, now time.Time) BehavioralProfile {
	return BehavioralProfile{
		UserID:         userID,
		SessionID:      sessionID,
		CreatedAt:      now,
		PrimaryState:   DefaultState,
		SecondaryState: DefaultState,
		Intensity:      IntensityMedium,
		Confidence:     0.5,
		Stability:      0.5,
		Momentum:       0,
		MicroStates:    []State{DefaultState},
		TransitionProbabilities: map[State]float64{
			DefaultState: 1,
		},
		PredictedNextState: DefaultState,
		JourneyStage:       StageDiscovery,
		Triggers:           []string{"initial_visit"},
		ContextualFactors:  map[string]string{},
		Indicators:         IndicatorScores{},
	}
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampSigned bounds v to [-1,1].
func ClampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
