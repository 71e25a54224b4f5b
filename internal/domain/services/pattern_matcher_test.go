package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

func testMatcher(tpls ...behavior.StateTemplate) *PatternMatcher {
	return NewPatternMatcher(&behavior.Library{Templates: tpls})
}

func TestMatchAccumulatesConditionCredit(t *testing.T) {
	matcher := testMatcher(behavior.StateTemplate{
		State: behavior.StateConfident,
		Conditions: []behavior.IndicatorCondition{
			{Indicator: behavior.IndicatorConfidentClicking, Min: 0.6},
			{Indicator: behavior.IndicatorMethodicalBehavior, Min: 0.3},
		},
		MinEvidence: 0.5,
	})

	scores := behavior.IndicatorScores{
		behavior.IndicatorConfidentClicking:  0.9,
		behavior.IndicatorMethodicalBehavior: 0.6,
	}
	candidates := matcher.Match(scores, nil)

	require.Len(t, candidates, 1)
	assert.Equal(t, behavior.StateConfident, candidates[0].State)
	assert.InDelta(t, 0.5, candidates[0].Evidence, 0.001, "two satisfied conditions at 0.25 each")
}

func TestMatchTriggerKeywordCredit(t *testing.T) {
	matcher := testMatcher(behavior.StateTemplate{
		State: behavior.StateHesitant,
		Conditions: []behavior.IndicatorCondition{
			{Indicator: behavior.IndicatorHesitantClicking, Min: 0.5},
		},
		TriggerKeywords: []string{"price", "return"},
		MinEvidence:     0.4,
	})

	scores := behavior.IndicatorScores{behavior.IndicatorHesitantClicking: 0.7}
	candidates := matcher.Match(scores, []string{"pricing-panel", "product-hero"})

	require.Len(t, candidates, 1)
	assert.Equal(t, behavior.StateHesitant, candidates[0].State)
	assert.InDelta(t, 0.45, candidates[0].Evidence, 0.001, "one condition plus one trigger keyword")
}

func TestMatchBelowThresholdYieldsDefault(t *testing.T) {
	matcher := testMatcher(behavior.StateTemplate{
		State: behavior.StateExcited,
		Conditions: []behavior.IndicatorCondition{
			{Indicator: behavior.IndicatorImpulsiveBehavior, Min: 0.9},
		},
		MinEvidence: 0.5,
	})

	candidates := matcher.Match(behavior.IndicatorScores{}, nil)

	require.Len(t, candidates, 1)
	assert.Equal(t, behavior.DefaultState, candidates[0].State)
	assert.Equal(t, 0.5, candidates[0].Evidence)
}

func TestMatchAbsentIndicatorNeverSatisfies(t *testing.T) {
	max := 1.0
	matcher := testMatcher(behavior.StateTemplate{
		State: behavior.StateFocused,
		Conditions: []behavior.IndicatorCondition{
			{Indicator: behavior.IndicatorFocusedAttention, Min: 0.0, Max: &max},
		},
		MinEvidence: 0.25,
	})

	candidates := matcher.Match(behavior.IndicatorScores{}, nil)
	assert.Equal(t, behavior.DefaultState, candidates[0].State, "a zero-minimum condition still needs the indicator present")
}

func TestMatchOrdersByEvidence(t *testing.T) {
	matcher := testMatcher(
		behavior.StateTemplate{
			State: behavior.StateCurious,
			Conditions: []behavior.IndicatorCondition{
				{Indicator: behavior.IndicatorExplorationDepth, Min: 0.3},
				{Indicator: behavior.IndicatorQuickScanning, Min: 0.3},
			},
			MinEvidence: 0.5,
		},
		behavior.StateTemplate{
			State: behavior.StateContemplative,
			Conditions: []behavior.IndicatorCondition{
				{Indicator: behavior.IndicatorDeepConsideration, Min: 0.5},
				{Indicator: behavior.IndicatorMethodicalBehavior, Min: 0.3},
				{Indicator: behavior.IndicatorSessionContinuity, Min: 0.3},
			},
			MinEvidence: 0.5,
		},
	)

	scores := behavior.IndicatorScores{
		behavior.IndicatorExplorationDepth:   0.5,
		behavior.IndicatorQuickScanning:      0.5,
		behavior.IndicatorDeepConsideration:  0.8,
		behavior.IndicatorMethodicalBehavior: 0.5,
		behavior.IndicatorSessionContinuity:  0.6,
	}
	candidates := matcher.Match(scores, nil)

	require.Len(t, candidates, 2)
	assert.Equal(t, behavior.StateContemplative, candidates[0].State, "more evidence ranks first")
	assert.Equal(t, behavior.StateCurious, candidates[1].State)
}
