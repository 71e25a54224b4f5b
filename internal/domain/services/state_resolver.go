package services

import (
	"fmt"
	"math"
	"time"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

// stateBoost lifts a candidate's evidence when its hallmark indicators are
// strong, so near-ties resolve toward the state the raw behavior supports.
type stateBoost struct {
	indicator string
	weight    float64
}

var resolutionBoosts = map[behavior.State][]stateBoost{
	behavior.StateConfident: {
		{behavior.IndicatorConfidentClicking, 0.5},
		{behavior.IndicatorMethodicalBehavior, 0.3},
	},
	behavior.StateHesitant: {
		{behavior.IndicatorHesitantClicking, 0.5},
		{behavior.IndicatorDeepConsideration, 0.3},
	},
	behavior.StateOverwhelmed: {
		{behavior.IndicatorOverwhelmedScrolling, 0.6},
	},
	behavior.StateInspired: {
		{behavior.IndicatorDeepConsideration, 0.4},
		{behavior.IndicatorSessionContinuity, 0.3},
	},
}

// coherencePairs are indicator pairs that corroborate each other; the weaker
// member of each pair caps its contribution to confidence.
var coherencePairs = [][2]string{
	{behavior.IndicatorConfidentClicking, behavior.IndicatorMethodicalBehavior},
	{behavior.IndicatorDeepConsideration, behavior.IndicatorSessionContinuity},
	{behavior.IndicatorOverwhelmedScrolling, behavior.IndicatorImpulsiveBehavior},
}

// StateResolver turns candidates plus raw evidence into a resolved profile:
// primary and secondary state, intensity, confidence, stability, momentum
// and journey stage.
type StateResolver struct {
	templates []behavior.StateTemplate
}

func NewStateResolver(lib *behavior.Library) *StateResolver {
	return &StateResolver{templates: lib.Templates}
}

// Resolve fills the resolution fields of a fresh profile. history is the
// user's prior resolved profiles, oldest first; it is read, never written.
func (r *StateResolver) Resolve(
	profile *behavior.BehavioralProfile,
	candidates []behavior.CandidateState,
	scores behavior.IndicatorScores,
	events []behavior.InteractionEvent,
	history []*behavior.BehavioralProfile,
) {
	ranked := r.applyBoosts(candidates, scores)

	profile.PrimaryState = ranked[0].State
	if len(ranked) > 1 {
		profile.SecondaryState = ranked[1].State
	} else {
		profile.SecondaryState = ranked[0].State
	}
	for i := 2; i < len(ranked) && i < 5; i++ {
		profile.MicroStates = append(profile.MicroStates, ranked[i].State)
	}

	profile.Indicators = scores
	profile.Intensity = behavior.IntensityForScore(intensityScore(scores, events))
	profile.Confidence = confidenceScore(scores, len(ranked), len(events))
	profile.Stability = stabilityScore(history)
	profile.Momentum = momentumScore(history, profile.Intensity)
	profile.JourneyStage = journeyStage(events)
	profile.Triggers = r.detectTriggers(profile.PrimaryState, events)
	profile.ContextualFactors = contextualFactors(events)
}

// applyBoosts re-ranks candidates with indicator boosts folded into the
// evidence. The incoming order breaks ties, so resolution stays
// deterministic for identical inputs.
func (r *StateResolver) applyBoosts(candidates []behavior.CandidateState, scores behavior.IndicatorScores) []behavior.CandidateState {
	ranked := make([]behavior.CandidateState, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		for _, boost := range resolutionBoosts[ranked[i].State] {
			ranked[i].Evidence += scores.GetOrZero(boost.indicator) * boost.weight
		}
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Evidence > ranked[j-1].Evidence; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

// intensityScore blends the strongest arousal indicators with short-term
// event pressure. Recency is measured against the newest event timestamp so
// replayed windows score identically.
func intensityScore(scores behavior.IndicatorScores, events []behavior.InteractionEvent) float64 {
	score := scores.GetOrZero(behavior.IndicatorImpulsiveBehavior)*0.3 +
		scores.GetOrZero(behavior.IndicatorDeepConsideration)*0.2 +
		scores.GetOrZero(behavior.IndicatorConfidentClicking)*0.2 +
		scores.GetOrZero(behavior.IndicatorOverwhelmedScrolling)*0.3

	if len(events) > 0 {
		newest := events[len(events)-1].Timestamp
		recent := 0
		for _, e := range events {
			if newest.Sub(e.Timestamp) <= time.Minute {
				recent++
			}
		}
		score += math.Min(0.4, 0.1*float64(recent))
	}
	return behavior.Clamp01(score)
}

func confidenceScore(scores behavior.IndicatorScores, candidateCount, windowLen int) float64 {
	confidence := 0.5
	for _, pair := range coherencePairs {
		confidence += math.Min(scores.GetOrZero(pair[0]), scores.GetOrZero(pair[1])) * 0.2
	}
	confidence += math.Min(0.3, 0.1*float64(candidateCount))
	confidence += math.Min(0.2, 0.02*float64(windowLen))
	return behavior.Clamp01(confidence)
}

// stabilityScore blends how often the primary state held steady across the
// recent profiles with how little the intensity wandered. Thin histories get
// the neutral 0.5.
func stabilityScore(history []*behavior.BehavioralProfile) float64 {
	if len(history) < 3 {
		return 0.5
	}
	window := history
	if len(window) > 5 {
		window = window[len(window)-5:]
	}

	steady := 0
	for i := 1; i < len(window); i++ {
		if window[i].PrimaryState == window[i-1].PrimaryState {
			steady++
		}
	}
	transitionStability := float64(steady) / float64(len(window)-1)

	levels := make([]float64, len(window))
	for i, p := range window {
		levels[i] = float64(p.Intensity.Level())
	}
	intensityVariance := variance(levels)

	return behavior.Clamp01(0.7*transitionStability + 0.3*(1-intensityVariance/3.0))
}

// momentumScore sums recent intensity level deltas, including the step into
// the current reading, damped and clamped to [-1, 1].
func momentumScore(history []*behavior.BehavioralProfile, current behavior.Intensity) float64 {
	levels := make([]float64, 0, 4)
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	for _, p := range history[start:] {
		levels = append(levels, float64(p.Intensity.Level()))
	}
	levels = append(levels, float64(current.Level()))
	if len(levels) < 2 {
		return 0
	}

	momentum := 0.0
	for i := 1; i < len(levels); i++ {
		momentum += (levels[i] - levels[i-1]) * 0.3
	}
	return behavior.ClampSigned(momentum)
}

// journeyStage applies ordered rules over the window; the first rule that
// fires wins.
func journeyStage(events []behavior.InteractionEvent) behavior.JourneyStage {
	if len(events) <= 3 {
		return behavior.StageDiscovery
	}
	actions := behavior.RecentActions(events, 0)
	last3 := lastN(actions, 3)
	last2 := lastN(actions, 2)

	switch {
	case containsString(last3, "search"):
		return behavior.StageExploration
	case containsString(last3, "hover") && len(events) > 5:
		return behavior.StageConsideration
	case containsString(actions, "add_to_cart"):
		return behavior.StageDecision
	case containsString(last2, "click") && len(events) > 8:
		return behavior.StageCommitment
	default:
		return behavior.StageEngagement
	}
}

// detectTriggers names the recent targets that carry the resolved state's
// trigger keywords.
func (r *StateResolver) detectTriggers(state behavior.State, events []behavior.InteractionEvent) []string {
	targets := behavior.RecentTargets(events, 3)
	var triggers []string
	for _, tpl := range r.templates {
		if tpl.State != state {
			continue
		}
		for _, keyword := range tpl.TriggerKeywords {
			if targetMentions(targets, keyword) {
				triggers = append(triggers, keyword)
			}
		}
	}
	if len(triggers) == 0 {
		triggers = []string{"behavioral_pattern"}
	}
	return triggers
}

func contextualFactors(events []behavior.InteractionEvent) map[string]string {
	factors := map[string]string{
		"event_count": fmt.Sprintf("%d", len(events)),
	}
	if len(events) == 0 {
		return factors
	}

	span := events[len(events)-1].Timestamp.Sub(events[0].Timestamp)
	switch {
	case span < 30*time.Second:
		factors["session_pace"] = "burst"
	case span < 5*time.Minute:
		factors["session_pace"] = "active"
	default:
		factors["session_pace"] = "extended"
	}

	counts := map[string]int{}
	dominant := events[0].Action
	for _, e := range events {
		counts[e.Action]++
		if counts[e.Action] > counts[dominant] {
			dominant = e.Action
		}
	}
	factors["dominant_action"] = dominant
	return factors
}

func lastN(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[len(list)-n:]
}
