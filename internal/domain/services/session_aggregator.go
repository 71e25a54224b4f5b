package services

import (
	"math"
	"time"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

// First-session defaults. A single session carries too little signal, so the
// aggregate starts from documented neutral values instead of extrapolating.
const (
	defaultChurnRisk         = 0.5
	defaultLifetimeValue     = 200.0
	defaultReturnProbability = 0.6
	baseLifetimeValue        = 200.0
)

// SessionAggregator derives cross-session insight from a user's session
// history. It never mutates the history it is handed.
type SessionAggregator struct{}

func NewSessionAggregator() *SessionAggregator {
	return &SessionAggregator{}
}

// SessionEngagement scores one session in [0,1] from its duration, volume
// and dominant intensity.
func SessionEngagement(metrics behavior.SessionMetrics, intensity behavior.Intensity) float64 {
	duration := math.Min(1, metrics.TotalDurationSeconds/60.0)
	volume := math.Min(1, float64(metrics.InteractionCount)/20.0)
	return duration*0.4 + volume*0.3 + intensity.EngagementWeight()*0.3
}

// Aggregate computes the multi-session insight for a history ordered oldest
// first. Re-running it over the same history yields the same insight.
func (a *SessionAggregator) Aggregate(history []behavior.SessionRecord, now time.Time) behavior.MultiSessionInsight {
	insight := behavior.MultiSessionInsight{
		SessionCount: len(history),
		JourneyStage: journeyStageForCount(len(history)),
		Progression:  journeyProgression(len(history)),
	}

	if len(history) <= 1 {
		insight.Loyalty = behavior.LoyaltyIndicators{
			ReturnFrequency:       0.5,
			EngagementDepth:       0.5,
			BehavioralConsistency: 0.5,
			Composite:             0.5,
		}
		insight.ChurnRisk = defaultChurnRisk
		insight.LifetimeValue = defaultLifetimeValue
		insight.NextSession = behavior.NextSessionForecast{
			ReturnProbability:       defaultReturnProbability,
			ExpectedEngagement:      0.5,
			ConversionLikelihood:    0.3,
			ExpectedDurationMinutes: 5,
		}
		return insight
	}

	insight.Loyalty = loyaltyIndicators(history, now)
	insight.ChurnRisk = churnRisk(history)
	insight.LifetimeValue = lifetimeValue(insight.Loyalty.Composite, len(history))
	insight.NextSession = nextSessionForecast(history, insight.Loyalty)
	return insight
}

func journeyStageForCount(sessions int) behavior.JourneyStage {
	switch {
	case sessions <= 1:
		return behavior.StageDiscovery
	case sessions <= 3:
		return behavior.StageExploration
	case sessions <= 5:
		return behavior.StageConsideration
	default:
		return behavior.StageEngagement
	}
}

func journeyProgression(sessions int) []behavior.JourneyStage {
	if sessions == 0 {
		return nil
	}
	progression := make([]behavior.JourneyStage, sessions)
	for i := range progression {
		progression[i] = journeyStageForCount(i + 1)
	}
	return progression
}

func loyaltyIndicators(history []behavior.SessionRecord, now time.Time) behavior.LoyaltyIndicators {
	loyalty := behavior.LoyaltyIndicators{
		ReturnFrequency:       returnFrequencyScore(history, now),
		EngagementDepth:       engagementDepthScore(history),
		BehavioralConsistency: consistencyScore(history),
	}
	loyalty.Composite = (loyalty.ReturnFrequency + loyalty.EngagementDepth + loyalty.BehavioralConsistency) / 3.0
	return loyalty
}

func returnFrequencyScore(history []behavior.SessionRecord, now time.Time) float64 {
	last := history[len(history)-1]
	end := last.EndTime
	if end.IsZero() {
		end = last.StartTime
	}
	sinceLast := now.Sub(end)
	switch {
	case sinceLast <= 7*24*time.Hour:
		return 0.9
	case sinceLast <= 30*24*time.Hour:
		return 0.6
	case sinceLast <= 90*24*time.Hour:
		return 0.3
	default:
		return 0.1
	}
}

func engagementDepthScore(history []behavior.SessionRecord) float64 {
	var pages, minutes float64
	for _, s := range history {
		pages += float64(s.Metrics.UniqueTargets)
		minutes += s.Metrics.TotalDurationSeconds / 60.0
	}
	avgPages := pages / float64(len(history))
	avgMinutes := minutes / float64(len(history))
	switch {
	case avgPages >= 8 || avgMinutes >= 15:
		return 0.9
	case avgPages >= 5 || avgMinutes >= 8:
		return 0.6
	default:
		return 0.3
	}
}

func consistencyScore(history []behavior.SessionRecord) float64 {
	engagements := make([]float64, len(history))
	for i, s := range history {
		engagements[i] = s.Metrics.EngagementScore
	}
	switch v := variance(engagements); {
	case v <= 0.2:
		return 0.8
	case v <= 0.5:
		return 0.6
	default:
		return 0.2
	}
}

// churnRisk is the complement of mean engagement across the last three
// sessions: a disengaging user trends toward 1.
func churnRisk(history []behavior.SessionRecord) float64 {
	window := history
	if len(window) > 3 {
		window = window[len(window)-3:]
	}
	total := 0.0
	for _, s := range window {
		total += s.Metrics.EngagementScore
	}
	return math.Max(0, 1-total/float64(len(window)))
}

func lifetimeValue(compositeLoyalty float64, sessions int) float64 {
	multiplier := math.Min(2.0, 1+0.1*float64(sessions))
	return baseLifetimeValue * compositeLoyalty * multiplier
}

func nextSessionForecast(history []behavior.SessionRecord, loyalty behavior.LoyaltyIndicators) behavior.NextSessionForecast {
	last := history[len(history)-1]
	recentEngagement := last.Metrics.EngagementScore

	var totalMinutes float64
	for _, s := range history {
		totalMinutes += s.Metrics.TotalDurationSeconds / 60.0
	}
	avgMinutes := totalMinutes / float64(len(history))

	return behavior.NextSessionForecast{
		ReturnProbability:       behavior.Clamp01(0.4*loyalty.ReturnFrequency + 0.4*loyalty.Composite + 0.2*recentEngagement),
		ExpectedEngagement:      behavior.Clamp01(0.6*recentEngagement + 0.4*loyalty.EngagementDepth),
		ConversionLikelihood:    behavior.Clamp01(loyalty.Composite * recentEngagement),
		ExpectedDurationMinutes: avgMinutes,
	}
}

// BuildSignature computes the per-user behavioral fingerprint from the
// current event window plus the session history. History-dependent fields
// hold 0.5 until at least two sessions exist.
func (a *SessionAggregator) BuildSignature(userID string, events []behavior.InteractionEvent, history []behavior.SessionRecord, now time.Time) behavior.BehavioralSignature {
	sig := behavior.BehavioralSignature{
		UserID:             userID,
		ReturnFrequency:    0.5,
		SessionConsistency: 0.5,
	}

	var dwells, velocities []float64
	var decisions, clicks float64
	for _, e := range events {
		if e.DwellSeconds > 0 {
			dwells = append(dwells, e.DwellSeconds)
		}
		if e.ScrollVelocity > 0 {
			velocities = append(velocities, e.ScrollVelocity)
		}
		if e.Action == "click" || e.Action == "add_to_cart" {
			clicks++
			if e.DurationSeconds <= ClickDecisionGapSeconds {
				decisions++
			}
		}
	}
	sig.AvgDwellSeconds = mean(dwells)
	if len(velocities) > 0 {
		sig.ScrollVelocityQuartiles = [3]float64{
			percentile(velocities, 25),
			percentile(velocities, 50),
			percentile(velocities, 75),
		}
	}

	gaps := interEventGaps(events)
	if len(gaps) > 0 {
		sig.RhythmMeanSeconds = mean(gaps)
		sig.RhythmStdSeconds = math.Sqrt(variance(gaps))
		sig.RhythmMedianSeconds = median(gaps)
	}
	if clicks > 0 {
		sig.DecisionSpeed = decisions / clicks
	}

	if len(events) > 0 {
		total := float64(len(events))
		var explorations, comparisons float64
		for _, e := range events {
			if containsAny(e.Action, explorationActions) {
				explorations++
			}
			if containsAny(e.Action, comparisonActions) {
				comparisons++
			}
		}
		sig.ExplorationDepth = explorations / total
		sig.ComparisonTendency = comparisons / total
	}

	if len(history) >= 2 {
		sig.ReturnFrequency = returnFrequencyScore(history, now)
		sig.SessionConsistency = consistencyScore(history)
	}
	return sig
}
