package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	"github.com/canvasthink/resonance-go/internal/infrastructure/templates"
)

func newTestResolver() *StateResolver {
	return NewStateResolver(templates.DefaultLibrary())
}

func profileAt(state behavior.State, intensity behavior.Intensity) *behavior.BehavioralProfile {
	return &behavior.BehavioralProfile{PrimaryState: state, Intensity: intensity}
}

func TestResolveBoostsPromoteSupportedState(t *testing.T) {
	resolver := newTestResolver()
	candidates := []behavior.CandidateState{
		{State: behavior.StateConfident, Evidence: 0.5},
		{State: behavior.StateHesitant, Evidence: 0.5},
	}
	scores := behavior.IndicatorScores{
		behavior.IndicatorHesitantClicking:  0.8,
		behavior.IndicatorDeepConsideration: 0.6,
	}

	profile := &behavior.BehavioralProfile{}
	resolver.Resolve(profile, candidates, scores, nil, nil)

	assert.Equal(t, behavior.StateHesitant, profile.PrimaryState, "indicator support outranks raw tie")
	assert.Equal(t, behavior.StateConfident, profile.SecondaryState)
}

func TestResolveSecondaryDefaultsToPrimary(t *testing.T) {
	resolver := newTestResolver()
	candidates := []behavior.CandidateState{{State: behavior.StateCurious, Evidence: 0.5}}

	profile := &behavior.BehavioralProfile{}
	resolver.Resolve(profile, candidates, behavior.IndicatorScores{}, nil, nil)

	assert.Equal(t, behavior.StateCurious, profile.PrimaryState)
	assert.Equal(t, behavior.StateCurious, profile.SecondaryState)
}

func TestResolveIsPureAcrossCalls(t *testing.T) {
	resolver := newTestResolver()
	base := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	events := eventsAt(base, 5,
		behavior.InteractionEvent{Action: "view", DwellSeconds: 4},
		behavior.InteractionEvent{Action: "search", DwellSeconds: 2},
		behavior.InteractionEvent{Action: "click", DwellSeconds: 6},
		behavior.InteractionEvent{Action: "hover", DwellSeconds: 3},
	)
	scores := newTestScorer().Score(events)
	candidates := NewPatternMatcher(templates.DefaultLibrary()).Match(scores, behavior.RecentTargets(events, 3))

	first := &behavior.BehavioralProfile{}
	second := &behavior.BehavioralProfile{}
	resolver.Resolve(first, candidates, scores, events, nil)
	resolver.Resolve(second, candidates, scores, events, nil)

	assert.Equal(t, first, second)
}

func TestResolveConfidenceBaseline(t *testing.T) {
	resolver := newTestResolver()
	candidates := []behavior.CandidateState{{State: behavior.StateCurious, Evidence: 0.5}}

	profile := &behavior.BehavioralProfile{}
	resolver.Resolve(profile, candidates, behavior.IndicatorScores{}, nil, nil)

	assert.InDelta(t, 0.6, profile.Confidence, 0.001, "neutral scores give baseline plus one candidate")
}

func TestStabilityNeutralForThinHistory(t *testing.T) {
	history := []*behavior.BehavioralProfile{
		profileAt(behavior.StateCurious, behavior.IntensityMedium),
		profileAt(behavior.StateCurious, behavior.IntensityMedium),
	}
	assert.Equal(t, 0.5, stabilityScore(history))
}

func TestStabilityRewardsSteadyState(t *testing.T) {
	var history []*behavior.BehavioralProfile
	for i := 0; i < 5; i++ {
		history = append(history, profileAt(behavior.StateContemplative, behavior.IntensityMedium))
	}
	assert.InDelta(t, 1.0, stabilityScore(history), 0.001)

	churn := []*behavior.BehavioralProfile{
		profileAt(behavior.StateCurious, behavior.IntensityLow),
		profileAt(behavior.StateExcited, behavior.IntensityExtreme),
		profileAt(behavior.StateHesitant, behavior.IntensityLow),
		profileAt(behavior.StateConfident, behavior.IntensityExtreme),
		profileAt(behavior.StateDoubtful, behavior.IntensityLow),
	}
	assert.Less(t, stabilityScore(churn), 0.5)
}

func TestMomentumTracksIntensityDirection(t *testing.T) {
	rising := []*behavior.BehavioralProfile{
		profileAt(behavior.StateCurious, behavior.IntensityLow),
		profileAt(behavior.StateCurious, behavior.IntensityLow),
		profileAt(behavior.StateCurious, behavior.IntensityLow),
	}
	assert.InDelta(t, 0.6, momentumScore(rising, behavior.IntensityHigh), 0.001)

	falling := []*behavior.BehavioralProfile{
		profileAt(behavior.StateExcited, behavior.IntensityExtreme),
		profileAt(behavior.StateExcited, behavior.IntensityExtreme),
	}
	assert.InDelta(t, -0.9, momentumScore(falling, behavior.IntensityLow), 0.001)

	assert.Zero(t, momentumScore(nil, behavior.IntensityMedium))
}

func TestMomentumStaysClamped(t *testing.T) {
	swings := []*behavior.BehavioralProfile{
		profileAt(behavior.StateCurious, behavior.IntensityLow),
		profileAt(behavior.StateExcited, behavior.IntensityExtreme),
		profileAt(behavior.StateCurious, behavior.IntensityLow),
	}
	m := momentumScore(swings, behavior.IntensityExtreme)
	assert.GreaterOrEqual(t, m, -1.0)
	assert.LessOrEqual(t, m, 1.0)
}

func TestJourneyStageRules(t *testing.T) {
	base := time.Now().UTC()
	mk := func(actions ...string) []behavior.InteractionEvent {
		specs := make([]behavior.InteractionEvent, len(actions))
		for i, a := range actions {
			specs[i] = behavior.InteractionEvent{Action: a}
		}
		return eventsAt(base, 1, specs...)
	}

	assert.Equal(t, behavior.StageDiscovery, journeyStage(mk("view", "view")))
	assert.Equal(t, behavior.StageExploration, journeyStage(mk("view", "view", "view", "search")))
	assert.Equal(t, behavior.StageConsideration, journeyStage(mk("view", "view", "view", "view", "view", "hover")))
	assert.Equal(t, behavior.StageDecision, journeyStage(mk("view", "add_to_cart", "view", "view", "view")))
	assert.Equal(t, behavior.StageCommitment, journeyStage(mk("view", "view", "view", "view", "view", "view", "view", "view", "click")))
	assert.Equal(t, behavior.StageEngagement, journeyStage(mk("view", "view", "view", "view", "view")))
}

func TestIntensityIgnoresWallClock(t *testing.T) {
	specs := []behavior.InteractionEvent{
		{Action: "view"}, {Action: "click"}, {Action: "view"},
		{Action: "click"}, {Action: "view"},
	}
	old := eventsAt(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 5, specs...)
	recent := eventsAt(time.Now().UTC().Add(-time.Hour), 5, specs...)

	scores := behavior.IndicatorScores{}
	assert.Equal(t, intensityScore(scores, old), intensityScore(scores, recent),
		"recency is relative to the newest event, not to now")
}

func TestResolveFillsContextualFactors(t *testing.T) {
	resolver := newTestResolver()
	base := time.Now().UTC()
	events := eventsAt(base, 1,
		behavior.InteractionEvent{Action: "view"},
		behavior.InteractionEvent{Action: "view"},
		behavior.InteractionEvent{Action: "click"},
	)
	candidates := []behavior.CandidateState{{State: behavior.StateCurious, Evidence: 0.5}}

	profile := &behavior.BehavioralProfile{}
	resolver.Resolve(profile, candidates, behavior.IndicatorScores{}, events, nil)

	assert.Equal(t, "3", profile.ContextualFactors["event_count"])
	assert.Equal(t, "burst", profile.ContextualFactors["session_pace"])
	assert.Equal(t, "view", profile.ContextualFactors["dominant_action"])
}

func TestResolveDetectsTriggers(t *testing.T) {
	resolver := newTestResolver()
	base := time.Now().UTC()
	events := eventsAt(base, 2,
		behavior.InteractionEvent{Action: "view", Target: "price-table"},
		behavior.InteractionEvent{Action: "hover", Target: "return-policy"},
	)
	candidates := []behavior.CandidateState{{State: behavior.StateHesitant, Evidence: 0.6}}

	profile := &behavior.BehavioralProfile{}
	resolver.Resolve(profile, candidates, behavior.IndicatorScores{}, events, nil)

	require.Equal(t, behavior.StateHesitant, profile.PrimaryState)
	assert.ElementsMatch(t, []string{"price", "return"}, profile.Triggers)
}
