package behavior

// IndicatorCondition is one indicator-range condition on a state template. A
// nil Max makes the condition a lower-bound threshold.
type IndicatorCondition struct {
	Indicator string   `json:"indicator"`
	Min       float64  `json:"min"`
	Max       *float64 `json:"max,omitempty"`
}

// Satisfied reports whether the score set meets this condition. Absent
// indicators never satisfy a condition.
func (c IndicatorCondition) Satisfied(scores IndicatorScores) bool {
	v, ok := scores[c.Indicator]
	if !ok {
		return false
	}
	if v < c.Min {
		return false
	}
	if c.Max != nil && v > *c.Max {
		return false
	}
	return true
}

// StateTemplate is the evidence rule for one state: indicator ranges plus
// trigger keywords, accepted once accumulated evidence meets MinEvidence.
// Loaded once at startup, immutable thereafter.
type StateTemplate struct {
	State           State                `json:"state"`
	Conditions      []IndicatorCondition `json:"conditions"`
	TriggerKeywords []string             `json:"triggerKeywords"`
	MinEvidence     float64              `json:"minEvidence"`
}

// TransitionRow is one successor entry in the base transition table. Row
// order within a state is the declaration order used for tie-breaking.
type TransitionRow struct {
	To          State   `json:"to"`
	Probability float64 `json:"probability"`
}

// TransitionAdjustment adds Delta to the probability of transitioning to To
// whenever Action appears among the recent actions.
type TransitionAdjustment struct {
	Action string  `json:"action"`
	To     State   `json:"to"`
	Delta  float64 `json:"delta"`
}

// SequenceTemplate is one named behavioral action sequence with its expected
// per-step timing, used by sequence-similarity scoring.
type SequenceTemplate struct {
	Name          string    `json:"name"`
	Actions       []string  `json:"actions"`
	TimingSeconds []float64 `json:"timingSeconds"`
}

// PersonalizationEntry is the base personalization bundle for one state.
type PersonalizationEntry struct {
	Products     []string        `json:"products"`
	UI           map[string]bool `json:"ui"`
	Tone         string          `json:"tone"`
	Style        string          `json:"style"`
	PriorityInfo []string        `json:"priorityInfo"`
}

// PersonalizationTable maps states to their base personalization. The entry
// keyed by DefaultState doubles as the explicit default branch.
type PersonalizationTable map[State]PersonalizationEntry

// ForState returns the entry for a state, falling back to the default
// branch. Lookups are total by construction.
func (t PersonalizationTable) ForState(s State) PersonalizationEntry {
	if e, ok := t[s]; ok {
		return e
	}
	return t[DefaultState]
}

// Library is the full immutable configuration of the engine: state
// templates, transition tables, sequence library, and personalization
// tables. Loaded once at startup; shared read-only thereafter.
type Library struct {
	Version         string                    `json:"version"`
	Templates       []StateTemplate           `json:"templates"`
	Transitions     map[State][]TransitionRow `json:"transitions"`
	Adjustments     []TransitionAdjustment    `json:"adjustments"`
	Sequences       []SequenceTemplate        `json:"sequences"`
	Personalization PersonalizationTable      `json:"personalization"`
}
