package services

import (
	"sort"
	"strings"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

const (
	conditionCredit = 0.25
	triggerCredit   = 0.2
)

// PatternMatcher grades indicator scores against the library's state
// templates and emits the candidate states with enough evidence.
type PatternMatcher struct {
	templates []behavior.StateTemplate
}

func NewPatternMatcher(lib *behavior.Library) *PatternMatcher {
	return &PatternMatcher{templates: lib.Templates}
}

// Match returns candidates ordered by descending evidence. Each satisfied
// indicator condition earns 0.25 and each trigger keyword seen among the
// recent targets earns 0.2; a template qualifies once it reaches its minimum
// evidence. When nothing qualifies the caller gets the default state with
// neutral evidence, so the pipeline never runs dry.
func (m *PatternMatcher) Match(scores behavior.IndicatorScores, recentTargets []string) []behavior.CandidateState {
	var candidates []behavior.CandidateState
	for _, tpl := range m.templates {
		evidence := m.evaluate(tpl, scores, recentTargets)
		if evidence >= tpl.MinEvidence {
			candidates = append(candidates, behavior.CandidateState{
				State:    tpl.State,
				Evidence: behavior.Clamp01(evidence),
			})
		}
	}
	if len(candidates) == 0 {
		return []behavior.CandidateState{{State: behavior.DefaultState, Evidence: 0.5}}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Evidence > candidates[j].Evidence
	})
	return candidates
}

func (m *PatternMatcher) evaluate(tpl behavior.StateTemplate, scores behavior.IndicatorScores, recentTargets []string) float64 {
	evidence := 0.0
	for _, cond := range tpl.Conditions {
		if cond.Satisfied(scores) {
			evidence += conditionCredit
		}
	}
	for _, keyword := range tpl.TriggerKeywords {
		if targetMentions(recentTargets, keyword) {
			evidence += triggerCredit
		}
	}
	return evidence
}

func targetMentions(targets []string, keyword string) bool {
	for _, t := range targets {
		if strings.Contains(strings.ToLower(t), keyword) {
			return true
		}
	}
	return false
}
