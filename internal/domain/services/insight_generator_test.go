package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	"github.com/canvasthink/resonance-go/internal/infrastructure/templates"
)

func newTestGenerator() *InsightGenerator {
	return NewInsightGenerator(templates.DefaultLibrary())
}

func TestGenerateFillsEveryField(t *testing.T) {
	generator := newTestGenerator()
	now := time.Now().UTC()
	profile := &behavior.BehavioralProfile{
		UserID:       "user-1",
		SessionID:    "session-1",
		PrimaryState: behavior.StateConfident,
		JourneyStage: behavior.StageDecision,
	}

	insight := generator.Generate(profile, nil, now)

	assert.Equal(t, "user-1", insight.UserID)
	assert.Equal(t, "session-1", insight.SessionID)
	assert.Equal(t, now, insight.GeneratedAt)
	assert.Equal(t, behavior.StateConfident, insight.PrimaryState)
	assert.NotEmpty(t, insight.ProductFocus)
	assert.NotEmpty(t, insight.CommunicationTone)
	assert.NotEmpty(t, insight.MicroAdaptations)
	assert.NotEmpty(t, insight.PredictiveSuggestions)
	assert.NotEmpty(t, insight.JourneyGuidance)
	assert.NotEmpty(t, insight.ContextualMessage)
	assert.Equal(t, "premium_anchoring", insight.PricingPsychology)
	assert.Equal(t, []string{"add_to_cart", "review_guarantee"}, insight.NextActions)
}

func TestGenerateUnknownStateFallsBack(t *testing.T) {
	generator := newTestGenerator()
	profile := &behavior.BehavioralProfile{
		PrimaryState: behavior.StateSatisfied,
		JourneyStage: behavior.StageEngagement,
	}

	insight := generator.Generate(profile, nil, time.Now().UTC())

	fallback := templates.DefaultLibrary().Personalization.ForState(behavior.DefaultState)
	assert.Equal(t, fallback.Tone, insight.CommunicationTone)
	assert.Equal(t, microAdaptations[behavior.DefaultState], insight.MicroAdaptations)
	assert.Equal(t, pricingPsychology[behavior.DefaultState], insight.PricingPsychology)
}

func TestSuggestionsLeadWithStrongPrediction(t *testing.T) {
	profile := &behavior.BehavioralProfile{
		PrimaryState:       behavior.StateHesitant,
		PredictedNextState: behavior.StateConfident,
		TransitionProbabilities: map[behavior.State]float64{
			behavior.StateConfident: 0.45,
		},
	}

	got := suggestionsFor(profile)

	require.NotEmpty(t, got)
	assert.Equal(t, "proceed_to_checkout", got[0])
	assert.Contains(t, got, "read_customer_reviews")
}

func TestSuggestionsIgnoreWeakPrediction(t *testing.T) {
	profile := &behavior.BehavioralProfile{
		PrimaryState:       behavior.StateHesitant,
		PredictedNextState: behavior.StateConfident,
		TransitionProbabilities: map[behavior.State]float64{
			behavior.StateConfident: 0.3,
		},
	}

	assert.Equal(t, predictiveSuggestions[behavior.StateHesitant], suggestionsFor(profile))
}

func TestInterventionsReassureConfidentHesitation(t *testing.T) {
	generator := newTestGenerator()
	profile := &behavior.BehavioralProfile{
		PrimaryState: behavior.StateHesitant,
		Confidence:   0.8,
		JourneyStage: behavior.StageConsideration,
	}

	insight := generator.Generate(profile, nil, time.Now().UTC())

	require.Len(t, insight.Interventions, 1)
	assert.Equal(t, "reassurance", insight.Interventions[0].Type)
	assert.Equal(t, "medium", insight.Interventions[0].Urgency)
}

func TestInterventionsSimplifyOnlyUnderHighIntensity(t *testing.T) {
	generator := newTestGenerator()
	mild := &behavior.BehavioralProfile{
		PrimaryState: behavior.StateOverwhelmed,
		Intensity:    behavior.IntensityMedium,
		JourneyStage: behavior.StageExploration,
	}
	severe := &behavior.BehavioralProfile{
		PrimaryState: behavior.StateOverwhelmed,
		Intensity:    behavior.IntensityExtreme,
		JourneyStage: behavior.StageExploration,
	}

	assert.Empty(t, generator.Generate(mild, nil, time.Now().UTC()).Interventions)

	interventions := generator.Generate(severe, nil, time.Now().UTC()).Interventions
	require.Len(t, interventions, 1)
	assert.Equal(t, "simplify", interventions[0].Type)
	assert.Equal(t, "high", interventions[0].Urgency)
}

func TestInterventionsOfferComparisonToolAfterLongDwell(t *testing.T) {
	generator := newTestGenerator()
	base := time.Now().UTC()
	events := eventsAt(base, 3,
		behavior.InteractionEvent{Action: "compare", Target: "model-a", DwellSeconds: 12},
		behavior.InteractionEvent{Action: "view", Target: "compare-drawer", DwellSeconds: 11},
	)
	profile := &behavior.BehavioralProfile{
		PrimaryState: behavior.StateContemplative,
		JourneyStage: behavior.StageConsideration,
	}

	insight := generator.Generate(profile, events, time.Now().UTC())

	require.Len(t, insight.Interventions, 1)
	assert.Equal(t, "comparison_tool", insight.Interventions[0].Type)
	assert.Equal(t, "low", insight.Interventions[0].Urgency)
}
