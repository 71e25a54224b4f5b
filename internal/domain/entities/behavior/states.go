// Package behavior defines the core entities of the behavioral inference
// engine: interaction events, indicator scores, resolved profiles, session
// records, and the static template configuration they are matched against.
package behavior

// State identifies an inferred behavioral/emotional state.
type State string

const (
	StateCurious       State = "curious"
	StateContemplative State = "contemplative"
	StateExcited       State = "excited"
	StateFrustrated    State = "frustrated"
	StateHesitant      State = "hesitant"
	StateInspired      State = "inspired"
	StateOverwhelmed   State = "overwhelmed"
	StateConfident     State = "confident"
	StateAnticipatory  State = "anticipatory"
	StateSatisfied     State = "satisfied"
	StateDoubtful      State = "doubtful"
	StateDelighted     State = "delighted"
	StateFocused       State = "focused"
)

// DefaultState is the neutral fallback when no template accumulates enough
// evidence. Profiles are never state-less.
const DefaultState = StateCurious

var knownStates = map[State]bool{
	StateCurious:       true,
	StateContemplative: true,
	StateExcited:       true,
	StateFrustrated:    true,
	StateHesitant:      true,
	StateInspired:      true,
	StateOverwhelmed:   true,
	StateConfident:     true,
	StateAnticipatory:  true,
	StateSatisfied:     true,
	StateDoubtful:      true,
	StateDelighted:     true,
	StateFocused:       true,
}

// ParseState maps an identifier onto a known state. Unknown identifiers fall
// back to the default state so downstream lookups stay total.
func ParseState(s string) (State, bool) {
	st := State(s)
	if knownStates[st] {
		return st, true
	}
	return DefaultState, false
}

// Intensity expresses how strongly the resolved state is held.
type Intensity string

const (
	IntensityLow     Intensity = "low"
	IntensityMedium  Intensity = "medium"
	IntensityHigh    Intensity = "high"
	IntensityExtreme Intensity = "extreme"
)

// Level returns the ordinal rank of an intensity, 1 through 4. Unknown values
// rank as medium.
func (i Intensity) Level() int {
	switch i {
	case IntensityLow:
		return 1
	case IntensityMedium:
		return 2
	case IntensityHigh:
		return 3
	case IntensityExtreme:
		return 4
	default:
		return 2
	}
}

// EngagementWeight maps an intensity to its contribution in engagement
// scoring.
func (i Intensity) EngagementWeight() float64 {
	switch i {
	case IntensityLow:
		return 0.2
	case IntensityMedium:
		return 0.4
	case IntensityHigh:
		return 0.7
	case IntensityExtreme:
		return 1.0
	default:
		return 0.5
	}
}

// IntensityForScore buckets a [0,1] intensity score into the four ordered
// bands. Thresholds are fixed at 0.3, 0.6 and 0.8.
func IntensityForScore(score float64) Intensity {
	switch {
	case score >= 0.8:
		return IntensityExtreme
	case score >= 0.6:
		return IntensityHigh
	case score >= 0.3:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

// JourneyStage is a coarse label for where in the relationship the user sits.
type JourneyStage string

const (
	StageDiscovery     JourneyStage = "discovery"
	StageExploration   JourneyStage = "exploration"
	StageConsideration JourneyStage = "consideration"
	StageDecision      JourneyStage = "decision"
	StageCommitment    JourneyStage = "commitment"
	StageEngagement    JourneyStage = "engagement"
)
