package services

import (
	"time"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

// comparisonDwellThresholdSeconds is how long a user must linger on
// comparison surfaces before the comparison-tool intervention fires.
const comparisonDwellThresholdSeconds = 20.0

var microAdaptations = map[behavior.State][]string{
	behavior.StateCurious:       {"surface_related_discoveries", "soften_calls_to_action"},
	behavior.StateContemplative: {"expand_detail_sections", "pin_specifications"},
	behavior.StateExcited:       {"enable_quick_purchase_path", "highlight_availability"},
	behavior.StateFrustrated:    {"reduce_form_fields", "surface_help_entry"},
	behavior.StateHesitant:      {"show_guarantee_badge", "surface_return_policy"},
	behavior.StateConfident:     {"collapse_introductions", "promote_checkout_shortcut"},
	behavior.StateOverwhelmed:   {"hide_secondary_panels", "limit_visible_choices"},
	behavior.StateInspired:      {"feature_story_content", "suggest_collections"},
}

var predictiveSuggestions = map[behavior.State][]string{
	behavior.StateCurious:       {"explore_featured_collection", "read_origin_story"},
	behavior.StateContemplative: {"compare_top_candidates", "review_specifications"},
	behavior.StateExcited:       {"add_to_cart", "check_delivery_options"},
	behavior.StateFrustrated:    {"contact_support", "simplify_search"},
	behavior.StateHesitant:      {"read_customer_reviews", "view_guarantee"},
	behavior.StateConfident:     {"proceed_to_checkout", "view_complementary_items"},
	behavior.StateOverwhelmed:   {"view_curated_shortlist", "take_guided_tour"},
	behavior.StateInspired:      {"save_to_collection", "share_discovery"},
}

var journeyGuidance = map[behavior.JourneyStage]string{
	behavior.StageDiscovery:     "Let them wander; keep navigation light and invitations gentle.",
	behavior.StageExploration:   "Offer structure: categories, filters, and a path to compare.",
	behavior.StageConsideration: "Bring depth forward: details, reviews, and honest tradeoffs.",
	behavior.StageDecision:      "Remove friction: clear pricing, guarantees, one-step actions.",
	behavior.StageCommitment:    "Confirm the choice and make completion effortless.",
	behavior.StageEngagement:    "Reward the relationship: recognition, continuity, next steps.",
}

var stageMessages = map[behavior.JourneyStage]string{
	behavior.StageDiscovery:     "Take your time looking around.",
	behavior.StageExploration:   "Here are a few directions worth exploring.",
	behavior.StageConsideration: "Everything you need to weigh this is right here.",
	behavior.StageDecision:      "You're close. Here's what happens next.",
	behavior.StageCommitment:    "Great choice. Let's wrap this up.",
	behavior.StageEngagement:    "Welcome back. We kept your place.",
}

var pricingPsychology = map[behavior.State]string{
	behavior.StateCurious:       "value_framing",
	behavior.StateContemplative: "total_cost_transparency",
	behavior.StateExcited:       "momentum_pricing",
	behavior.StateFrustrated:    "simplicity_first",
	behavior.StateHesitant:      "risk_reversal",
	behavior.StateConfident:     "premium_anchoring",
	behavior.StateOverwhelmed:   "single_clear_price",
	behavior.StateInspired:      "aspirational_framing",
}

var nextActionsByStage = map[behavior.JourneyStage][]string{
	behavior.StageDiscovery:     {"browse_collections", "view_story"},
	behavior.StageExploration:   {"refine_search", "open_category"},
	behavior.StageConsideration: {"open_comparison", "read_reviews"},
	behavior.StageDecision:      {"add_to_cart", "review_guarantee"},
	behavior.StageCommitment:    {"complete_checkout", "confirm_details"},
	behavior.StageEngagement:    {"view_recommendations", "join_community"},
}

// InsightGenerator assembles the personalization bundle for a resolved
// profile. Every lookup is total: unknown states fall back through the
// library's default branch, so generation cannot fail.
type InsightGenerator struct {
	personalization behavior.PersonalizationTable
}

func NewInsightGenerator(lib *behavior.Library) *InsightGenerator {
	return &InsightGenerator{personalization: lib.Personalization}
}

// Generate builds the insight bundle from the profile and its source window.
func (g *InsightGenerator) Generate(
	profile *behavior.BehavioralProfile,
	events []behavior.InteractionEvent,
	now time.Time,
) behavior.PersonalizationInsight {
	entry := g.personalization.ForState(profile.PrimaryState)

	return behavior.PersonalizationInsight{
		UserID:                profile.UserID,
		SessionID:             profile.SessionID,
		GeneratedAt:           now,
		PrimaryState:          profile.PrimaryState,
		JourneyStage:          profile.JourneyStage,
		ProductFocus:          entry.Products,
		UIAdaptations:         entry.UI,
		CommunicationTone:     entry.Tone,
		InteractionStyle:      entry.Style,
		PriorityInformation:   entry.PriorityInfo,
		MicroAdaptations:      adaptationsFor(profile.PrimaryState),
		PredictiveSuggestions: suggestionsFor(profile),
		JourneyGuidance:       journeyGuidance[profile.JourneyStage],
		ContextualMessage:     stageMessages[profile.JourneyStage],
		PricingPsychology:     pricingFor(profile.PrimaryState),
		Interventions:         interventionsFor(profile, events),
		NextActions:           nextActionsByStage[profile.JourneyStage],
	}
}

func adaptationsFor(state behavior.State) []string {
	if a, ok := microAdaptations[state]; ok {
		return a
	}
	return microAdaptations[behavior.DefaultState]
}

// suggestionsFor serves the current state's suggestions, leading with the
// predicted next state's first suggestion when the prediction is strong.
func suggestionsFor(profile *behavior.BehavioralProfile) []string {
	base, ok := predictiveSuggestions[profile.PrimaryState]
	if !ok {
		base = predictiveSuggestions[behavior.DefaultState]
	}
	next := profile.PredictedNextState
	if next == "" || next == profile.PrimaryState {
		return base
	}
	if profile.TransitionProbabilities[next] < 0.4 {
		return base
	}
	ahead, ok := predictiveSuggestions[next]
	if !ok || len(ahead) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+1)
	out = append(out, ahead[0])
	out = append(out, base...)
	return out
}

func pricingFor(state behavior.State) string {
	if p, ok := pricingPsychology[state]; ok {
		return p
	}
	return pricingPsychology[behavior.DefaultState]
}

func interventionsFor(profile *behavior.BehavioralProfile, events []behavior.InteractionEvent) []behavior.Intervention {
	var interventions []behavior.Intervention

	if profile.PrimaryState == behavior.StateHesitant && profile.Confidence > 0.7 {
		interventions = append(interventions, behavior.Intervention{
			Type:    "reassurance",
			Message: "Free returns within 30 days, no questions asked.",
			Urgency: "medium",
		})
	}

	if profile.PrimaryState == behavior.StateOverwhelmed &&
		(profile.Intensity == behavior.IntensityHigh || profile.Intensity == behavior.IntensityExtreme) {
		interventions = append(interventions, behavior.Intervention{
			Type:    "simplify",
			Message: "Here are the three options that fit you best.",
			Urgency: "high",
		})
	}

	if comparisonDwell(events) > comparisonDwellThresholdSeconds {
		interventions = append(interventions, behavior.Intervention{
			Type:    "comparison_tool",
			Message: "See these side by side.",
			Urgency: "low",
		})
	}
	return interventions
}

func comparisonDwell(events []behavior.InteractionEvent) float64 {
	total := 0.0
	for _, e := range events {
		if containsAny(e.Action, comparisonActions) || targetMentions([]string{e.Target}, "compare") {
			total += e.DwellSeconds
		}
	}
	return total
}
