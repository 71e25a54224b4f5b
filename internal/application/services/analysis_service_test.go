package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	domainservices "github.com/canvasthink/resonance-go/internal/domain/services"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
	"github.com/canvasthink/resonance-go/internal/infrastructure/templates"
	"github.com/canvasthink/resonance-go/internal/infrastructure/userstate"
)

func newTestServices(t *testing.T) (*AnalysisService, *SessionService, *userstate.Store) {
	t.Helper()
	lib := templates.DefaultLibrary()
	store := userstate.NewStore(userstate.Limits{
		MaxEvents:      50,
		MaxEventAge:    30 * time.Minute,
		ProfileHistory: 10,
		SessionHistory: 10,
		MaxUsers:       100,
	}, nil)
	t.Cleanup(store.Close)

	tracker := performance.NewTracker(nil)
	sessions := NewSessionService(store, domainservices.NewSessionAggregator(), 30*time.Minute, nil, tracker)
	reporting := NewReportingService(100, nil, tracker)
	analysis := NewAnalysisService(
		store,
		sessions,
		reporting,
		domainservices.NewBehavioralScorer(lib),
		domainservices.NewPatternMatcher(lib),
		domainservices.NewStateResolver(lib),
		domainservices.NewTransitionPredictor(lib),
		domainservices.NewInsightGenerator(lib),
		nil,
		tracker,
	)
	return analysis, sessions, store
}

func viewEvents(base time.Time, n int) []behavior.InteractionEvent {
	events := make([]behavior.InteractionEvent, n)
	for i := range events {
		events[i] = behavior.InteractionEvent{
			Action:       "view",
			Target:       "item",
			DwellSeconds: 4,
			Timestamp:    base.Add(time.Duration(i*3) * time.Second),
		}
	}
	return events
}

func TestAnalyzeEmptyWindowYieldsDefaultProfile(t *testing.T) {
	analysis, _, _ := newTestServices(t)
	now := time.Now().UTC()

	result := analysis.Analyze("user-1", "", nil, now)

	require.NotNil(t, result.Profile)
	assert.Equal(t, behavior.DefaultState, result.Profile.PrimaryState)
	assert.Equal(t, "user-1", result.Profile.UserID)
	assert.NotEmpty(t, result.Profile.SessionID)
	assert.Equal(t, behavior.DefaultState, result.Insight.PrimaryState)

	latest, ok := analysis.LatestProfile("user-1")
	require.True(t, ok)
	assert.Same(t, result.Profile, latest)
}

func TestAnalyzeRunsFullPipeline(t *testing.T) {
	analysis, _, _ := newTestServices(t)
	now := time.Now().UTC()

	result := analysis.Analyze("user-1", "", viewEvents(now.Add(-time.Minute), 6), now)

	profile := result.Profile
	require.NotNil(t, profile)
	assert.NotEmpty(t, profile.ID)
	assert.NotEmpty(t, profile.PrimaryState)
	assert.NotEmpty(t, profile.TransitionProbabilities)
	assert.NotEmpty(t, profile.PredictedNextState)
	assert.InDelta(t, 1.0, sumProbabilities(profile.TransitionProbabilities), 1e-6)
	assert.GreaterOrEqual(t, profile.Confidence, 0.5)
	assert.Equal(t, profile.PrimaryState, result.Insight.PrimaryState)
	assert.NotEmpty(t, result.Insight.PredictiveSuggestions)
}

func TestIngestSkipsEventsWithoutAction(t *testing.T) {
	analysis, _, store := newTestServices(t)
	now := time.Now().UTC()

	accepted := analysis.Ingest("user-1", "", []behavior.InteractionEvent{
		{Action: "view", Target: "a"},
		{Action: "", Target: "ghost"},
		{Action: "click", Target: "b"},
	}, now)

	assert.Equal(t, 2, accepted)
	state, ok := store.Get("user-1")
	require.True(t, ok)
	state.Mu.Lock()
	defer state.Mu.Unlock()
	assert.Len(t, state.Window.Events(), 2)
	assert.Equal(t, 2, state.CurrentSession.Metrics.InteractionCount)
}

func TestIngestStampsSessionAndTimestamp(t *testing.T) {
	analysis, _, store := newTestServices(t)
	now := time.Now().UTC()

	analysis.Ingest("user-1", "", []behavior.InteractionEvent{{Action: "view"}}, now)

	state, _ := store.Get("user-1")
	state.Mu.Lock()
	defer state.Mu.Unlock()
	events := state.Window.Events()
	require.Len(t, events, 1)
	assert.Equal(t, state.CurrentSession.SessionID, events[0].SessionID)
	assert.Equal(t, now, events[0].Timestamp)
}

func TestProfileHistoryReturnsRecentFirstInOrder(t *testing.T) {
	analysis, _, _ := newTestServices(t)
	now := time.Now().UTC()

	for i := 0; i < 4; i++ {
		analysis.Analyze("user-1", "", viewEvents(now.Add(-time.Minute), 2), now.Add(time.Duration(i)*time.Second))
	}

	history := analysis.ProfileHistory("user-1", 2)
	require.Len(t, history, 2)
	assert.True(t, !history[1].CreatedAt.Before(history[0].CreatedAt))
	assert.Empty(t, analysis.ProfileHistory("stranger", 5))
}

func TestAnalyzeDecreasingDwellResolvesCalmState(t *testing.T) {
	analysis, _, _ := newTestServices(t)
	now := time.Now().UTC()

	dwells := []float64{10, 8, 6, 4, 2, 1, 1, 1, 1, 1}
	events := make([]behavior.InteractionEvent, len(dwells))
	for i, dwell := range dwells {
		events[i] = behavior.InteractionEvent{
			Action:         "read",
			Target:         "article",
			DwellSeconds:   dwell,
			ScrollVelocity: 30,
			Timestamp:      now.Add(time.Duration(i*3-30) * time.Second),
		}
	}

	profile := analysis.Analyze("user-1", "", events, now).Profile

	require.NotNil(t, profile)
	assert.InDelta(t, 1.0, profile.Indicators.GetOrZero(behavior.IndicatorDiminishingInterest), 0.001)
	assert.Zero(t, profile.Indicators.GetOrZero(behavior.IndicatorEscalatingInterest))
	assert.Equal(t, behavior.StateCurious, profile.PrimaryState)
	assert.NotContains(t, []behavior.State{
		behavior.StateExcited,
		behavior.StateFrustrated,
		behavior.StateOverwhelmed,
	}, profile.PrimaryState, "fading dwell must not read as arousal")
	assert.NotEqual(t, behavior.IntensityExtreme, profile.Intensity)
}

func TestAnalyzeIsDeterministicForReplayedWindow(t *testing.T) {
	now := time.Now().UTC()
	events := viewEvents(now.Add(-time.Minute), 5)

	first, _, _ := newTestServices(t)
	second, _, _ := newTestServices(t)

	a := first.Analyze("user-1", "", events, now)
	b := second.Analyze("user-1", "", events, now)

	assert.Equal(t, a.Profile.PrimaryState, b.Profile.PrimaryState)
	assert.Equal(t, a.Profile.Indicators, b.Profile.Indicators)
	assert.Equal(t, a.Profile.TransitionProbabilities, b.Profile.TransitionProbabilities)
	assert.Equal(t, a.Insight.PredictiveSuggestions, b.Insight.PredictiveSuggestions)
}

func TestAnalyzeEmitsEngineStageMarkers(t *testing.T) {
	lib := templates.DefaultLibrary()
	store := userstate.NewStore(userstate.Limits{
		MaxEvents:      50,
		MaxEventAge:    30 * time.Minute,
		ProfileHistory: 10,
		SessionHistory: 10,
		MaxUsers:       100,
	}, nil)
	t.Cleanup(store.Close)
	tracker := performance.NewTracker(nil)
	sessions := NewSessionService(store, domainservices.NewSessionAggregator(), 30*time.Minute, nil, tracker)
	analysis := NewAnalysisService(
		store,
		sessions,
		nil,
		domainservices.NewBehavioralScorer(lib),
		domainservices.NewPatternMatcher(lib),
		domainservices.NewStateResolver(lib),
		domainservices.NewTransitionPredictor(lib),
		domainservices.NewInsightGenerator(lib),
		nil,
		tracker,
	)
	now := time.Now().UTC()

	analysis.Analyze("user-1", "", viewEvents(now.Add(-time.Minute), 4), now)

	engine := tracker.TakeSnapshot().Engine
	require.NotNil(t, engine)
	assert.NotNil(t, engine.Scoring)
	assert.NotNil(t, engine.Matching)
	assert.NotNil(t, engine.Resolution)
	assert.NotNil(t, engine.Prediction)
}

func TestDeriveOutcomeFromWindow(t *testing.T) {
	state := &userstate.UserState{
		CurrentSession: &behavior.SessionRecord{
			Metrics: behavior.SessionMetrics{EngagementScore: 0.8},
		},
	}
	window := []behavior.InteractionEvent{
		{Action: "view", DurationSeconds: 5},
		{Action: "back", DurationSeconds: 2},
		{Action: "click", DurationSeconds: 1},
	}
	profile := &behavior.BehavioralProfile{UserID: "user-1", SessionID: "s1", Confidence: 0.5}

	outcome := deriveOutcome(state, window, profile)

	assert.Equal(t, "user-1", outcome.UserID)
	assert.Equal(t, 8.0, outcome.CompletionTimeSeconds)
	assert.Equal(t, 1, outcome.ErrorCount)
	assert.InDelta(t, 0.4, outcome.SatisfactionScore, 0.001)
}

func sumProbabilities(distribution map[behavior.State]float64) float64 {
	total := 0.0
	for _, p := range distribution {
		total += p
	}
	return total
}
