package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

func sessionWith(start time.Time, engagement float64, targets int, durationSec float64) behavior.SessionRecord {
	return behavior.SessionRecord{
		SessionID: "s",
		UserID:    "u",
		StartTime: start,
		EndTime:   start.Add(time.Duration(durationSec) * time.Second),
		Metrics: behavior.SessionMetrics{
			TotalDurationSeconds: durationSec,
			InteractionCount:     10,
			UniqueTargets:        targets,
			EngagementScore:      engagement,
		},
	}
}

func TestAggregateFirstSessionDefaults(t *testing.T) {
	aggregator := NewSessionAggregator()
	now := time.Now().UTC()

	insight := aggregator.Aggregate([]behavior.SessionRecord{sessionWith(now, 0.9, 12, 900)}, now)

	assert.Equal(t, 1, insight.SessionCount)
	assert.Equal(t, behavior.StageDiscovery, insight.JourneyStage)
	assert.Equal(t, behavior.LoyaltyIndicators{
		ReturnFrequency:       0.5,
		EngagementDepth:       0.5,
		BehavioralConsistency: 0.5,
		Composite:             0.5,
	}, insight.Loyalty)
	assert.Equal(t, defaultChurnRisk, insight.ChurnRisk)
	assert.Equal(t, defaultLifetimeValue, insight.LifetimeValue)
	assert.Equal(t, defaultReturnProbability, insight.NextSession.ReturnProbability)
	assert.Equal(t, 5.0, insight.NextSession.ExpectedDurationMinutes)
}

func TestAggregateJourneyStageByCount(t *testing.T) {
	cases := []struct {
		sessions int
		want     behavior.JourneyStage
	}{
		{1, behavior.StageDiscovery},
		{2, behavior.StageExploration},
		{3, behavior.StageExploration},
		{4, behavior.StageConsideration},
		{5, behavior.StageConsideration},
		{6, behavior.StageEngagement},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, journeyStageForCount(tc.sessions), "%d sessions", tc.sessions)
	}

	progression := journeyProgression(4)
	assert.Equal(t, []behavior.JourneyStage{
		behavior.StageDiscovery,
		behavior.StageExploration,
		behavior.StageExploration,
		behavior.StageConsideration,
	}, progression)
}

func TestChurnRiskFallsWithEngagement(t *testing.T) {
	now := time.Now().UTC()
	disengaged := []behavior.SessionRecord{
		sessionWith(now.Add(-48*time.Hour), 0.2, 3, 120),
		sessionWith(now.Add(-24*time.Hour), 0.1, 2, 60),
	}
	engaged := []behavior.SessionRecord{
		sessionWith(now.Add(-48*time.Hour), 0.8, 9, 900),
		sessionWith(now.Add(-24*time.Hour), 0.9, 10, 1100),
	}

	assert.Greater(t, churnRisk(disengaged), churnRisk(engaged))
	assert.InDelta(t, 0.85, churnRisk(disengaged), 0.001)
}

func TestChurnRiskUsesLastThreeSessions(t *testing.T) {
	now := time.Now().UTC()
	history := []behavior.SessionRecord{
		sessionWith(now.Add(-96*time.Hour), 0.0, 1, 30),
		sessionWith(now.Add(-72*time.Hour), 0.9, 9, 900),
		sessionWith(now.Add(-48*time.Hour), 0.9, 9, 900),
		sessionWith(now.Add(-24*time.Hour), 0.9, 9, 900),
	}
	assert.InDelta(t, 0.1, churnRisk(history), 0.001, "oldest session falls out of the window")
}

func TestLifetimeValueGrowsWithSessionCount(t *testing.T) {
	assert.Less(t, lifetimeValue(0.6, 2), lifetimeValue(0.6, 8))
	assert.InDelta(t, 0.6*200*1.2, lifetimeValue(0.6, 2), 0.001)
	assert.InDelta(t, 0.6*200*2.0, lifetimeValue(0.6, 15), 0.001, "multiplier caps at 2")
}

func TestLoyaltyBands(t *testing.T) {
	now := time.Now().UTC()
	recent := []behavior.SessionRecord{
		sessionWith(now.Add(-72*time.Hour), 0.7, 9, 1000),
		sessionWith(now.Add(-24*time.Hour), 0.7, 9, 1000),
	}
	stale := []behavior.SessionRecord{
		sessionWith(now.Add(-200*24*time.Hour), 0.7, 2, 120),
		sessionWith(now.Add(-150*24*time.Hour), 0.7, 2, 120),
	}

	recentLoyalty := loyaltyIndicators(recent, now)
	staleLoyalty := loyaltyIndicators(stale, now)

	assert.Equal(t, 0.9, recentLoyalty.ReturnFrequency)
	assert.Equal(t, 0.9, recentLoyalty.EngagementDepth)
	assert.Equal(t, 0.8, recentLoyalty.BehavioralConsistency, "steady engagement is consistent")
	assert.Equal(t, 0.1, staleLoyalty.ReturnFrequency)
	assert.Equal(t, 0.3, staleLoyalty.EngagementDepth)
	assert.Greater(t, recentLoyalty.Composite, staleLoyalty.Composite)
}

func TestSessionEngagementFormula(t *testing.T) {
	metrics := behavior.SessionMetrics{TotalDurationSeconds: 30, InteractionCount: 10}
	got := SessionEngagement(metrics, behavior.IntensityHigh)
	assert.InDelta(t, 0.5*0.4+0.5*0.3+0.7*0.3, got, 0.001)

	saturated := behavior.SessionMetrics{TotalDurationSeconds: 600, InteractionCount: 100}
	assert.InDelta(t, 1.0, SessionEngagement(saturated, behavior.IntensityExtreme), 0.001)
}

func TestBuildSignatureNeutralDefaults(t *testing.T) {
	aggregator := NewSessionAggregator()
	now := time.Now().UTC()

	sig := aggregator.BuildSignature("user-1", nil, nil, now)

	assert.Equal(t, "user-1", sig.UserID)
	assert.Equal(t, 0.5, sig.ReturnFrequency)
	assert.Equal(t, 0.5, sig.SessionConsistency)
	assert.Zero(t, sig.AvgDwellSeconds)
	assert.Zero(t, sig.DecisionSpeed)
}

func TestBuildSignatureFromWindow(t *testing.T) {
	aggregator := NewSessionAggregator()
	base := time.Now().UTC().Add(-time.Minute)
	events := eventsAt(base, 2,
		behavior.InteractionEvent{Action: "view", Target: "a", DwellSeconds: 4, ScrollVelocity: 100},
		behavior.InteractionEvent{Action: "compare", Target: "b", DwellSeconds: 8, ScrollVelocity: 200},
		behavior.InteractionEvent{Action: "click", Target: "c", DwellSeconds: 6, DurationSeconds: 1, ScrollVelocity: 300},
		behavior.InteractionEvent{Action: "click", Target: "d", DwellSeconds: 2, DurationSeconds: 5},
	)
	history := []behavior.SessionRecord{
		sessionWith(base.Add(-48*time.Hour), 0.7, 6, 600),
		sessionWith(base.Add(-24*time.Hour), 0.7, 6, 600),
	}

	sig := aggregator.BuildSignature("user-2", events, history, base.Add(time.Minute))

	assert.InDelta(t, 5.0, sig.AvgDwellSeconds, 0.001)
	assert.InDelta(t, 200, sig.ScrollVelocityQuartiles[1], 0.001, "median of measured velocities")
	assert.InDelta(t, 2.0, sig.RhythmMeanSeconds, 0.001)
	assert.InDelta(t, 0.5, sig.DecisionSpeed, 0.001, "one of two clicks inside the decision gap")
	assert.InDelta(t, 0.25, sig.ExplorationDepth, 0.001)
	assert.InDelta(t, 0.25, sig.ComparisonTendency, 0.001)
	assert.Equal(t, 0.9, sig.ReturnFrequency)
	assert.Equal(t, 0.8, sig.SessionConsistency)
}
