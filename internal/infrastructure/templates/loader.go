// Package templates loads and validates the engine's template library: state
// templates, transition tables, sequence patterns, and personalization. The
// built-in default library ships with the binary; a JSON file on disk can
// replace it wholesale.
package templates

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

const libraryFileName = "library.json"

// Load returns the library from libraryPath/library.json, or the built-in
// default when the path is empty or the file does not exist. A file that
// exists but fails to parse or validate is a hard error; running on a
// half-loaded library is worse than not starting.
func Load(libraryPath string) (*behavior.Library, error) {
	if libraryPath == "" {
		return DefaultLibrary(), nil
	}

	filePath := filepath.Join(libraryPath, libraryFileName)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultLibrary(), nil
		}
		return nil, fmt.Errorf("failed to read template library %s: %w", filePath, err)
	}

	var lib behavior.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse template library %s: %w", filePath, err)
	}
	if err := Validate(&lib); err != nil {
		return nil, fmt.Errorf("invalid template library %s: %w", filePath, err)
	}
	return &lib, nil
}

// Validate checks the structural invariants the engine depends on.
func Validate(lib *behavior.Library) error {
	if lib.Version == "" {
		return fmt.Errorf("library version is required")
	}
	if len(lib.Templates) == 0 {
		return fmt.Errorf("library has no state templates")
	}
	for i, tpl := range lib.Templates {
		if _, ok := behavior.ParseState(string(tpl.State)); !ok {
			return fmt.Errorf("template %d references unknown state %q", i, tpl.State)
		}
		if len(tpl.Conditions) == 0 {
			return fmt.Errorf("template for state %q has no conditions", tpl.State)
		}
		if tpl.MinEvidence <= 0 {
			return fmt.Errorf("template for state %q has non-positive minimum evidence", tpl.State)
		}
		for _, cond := range tpl.Conditions {
			if cond.Indicator == "" {
				return fmt.Errorf("template for state %q has a condition without an indicator", tpl.State)
			}
		}
	}
	for from, rows := range lib.Transitions {
		if len(rows) == 0 {
			return fmt.Errorf("transition table for state %q is empty", from)
		}
		sum := 0.0
		for _, row := range rows {
			if row.Probability <= 0 {
				return fmt.Errorf("transition %s -> %s has non-positive probability", from, row.To)
			}
			sum += row.Probability
		}
		if math.Abs(sum-1.0) > 0.01 {
			return fmt.Errorf("transition table for state %q sums to %.3f, want 1.0", from, sum)
		}
	}
	for _, seq := range lib.Sequences {
		if seq.Name == "" || len(seq.Actions) == 0 {
			return fmt.Errorf("sequence template %q is incomplete", seq.Name)
		}
		if len(seq.TimingSeconds) != len(seq.Actions) {
			return fmt.Errorf("sequence template %q has %d timings for %d actions", seq.Name, len(seq.TimingSeconds), len(seq.Actions))
		}
	}
	if len(lib.Personalization) == 0 {
		return fmt.Errorf("library has no personalization table")
	}
	if _, ok := lib.Personalization[behavior.DefaultState]; !ok {
		return fmt.Errorf("personalization table is missing the default branch for state %q", behavior.DefaultState)
	}
	return nil
}

func maxOf(v float64) *float64 { return &v }

// DefaultLibrary is the built-in template library. It is regenerated on
// every call so callers can never mutate the canonical copy.
func DefaultLibrary() *behavior.Library {
	return &behavior.Library{
		Version: "builtin-1",
		Templates: []behavior.StateTemplate{
			{
				State: behavior.StateCurious,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorExplorationDepth, Min: 0.4},
					{Indicator: behavior.IndicatorQuickScanning, Min: 0.3},
					{Indicator: behavior.IndicatorSessionContinuity, Min: 0.3},
				},
				TriggerKeywords: []string{"story", "discover", "new"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateContemplative,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorDeepConsideration, Min: 0.5},
					{Indicator: behavior.IndicatorFocusedAttention, Min: 0.5},
					{Indicator: behavior.IndicatorMethodicalBehavior, Min: 0.3},
				},
				TriggerKeywords: []string{"detail", "spec"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateExcited,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorImpulsiveBehavior, Min: 0.4},
					{Indicator: behavior.IndicatorEscalatingInterest, Min: 0.3},
					{Indicator: behavior.IndicatorConfidentClicking, Min: 0.5},
				},
				TriggerKeywords: []string{"cart", "deal"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateFrustrated,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorErraticBehavior, Min: 0.4},
					{Indicator: behavior.IndicatorFranticBehavior, Min: 0.5},
					{Indicator: behavior.IndicatorSearchRefinement, Min: 0.4},
				},
				TriggerKeywords: []string{"help", "error"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateHesitant,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorHesitantClicking, Min: 0.5},
					{Indicator: behavior.IndicatorDeepConsideration, Min: 0.4},
					{Indicator: behavior.IndicatorComparisonTendency, Min: 0.3},
				},
				TriggerKeywords: []string{"price", "return"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateInspired,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorDeepEngagement, Min: 0.5},
					{Indicator: behavior.IndicatorSessionContinuity, Min: 0.5},
					{Indicator: behavior.IndicatorExplorationDepth, Min: 0.4},
				},
				TriggerKeywords: []string{"story", "collection"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateOverwhelmed,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorOverwhelmedScrolling, Min: 0.5},
					{Indicator: behavior.IndicatorQuickScanning, Min: 0.5},
					{Indicator: behavior.IndicatorActiveSearching, Min: 0.4},
				},
				TriggerKeywords: []string{"category", "all"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateConfident,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorConfidentClicking, Min: 0.6},
					{Indicator: behavior.IndicatorMethodicalBehavior, Min: 0.3},
					{Indicator: behavior.IndicatorSteadyRhythm, Min: 0.5},
				},
				TriggerKeywords: []string{"checkout", "buy"},
				MinEvidence:     0.5,
			},
			{
				State: behavior.StateFocused,
				Conditions: []behavior.IndicatorCondition{
					{Indicator: behavior.IndicatorFocusedAttention, Min: 0.6},
					{Indicator: behavior.IndicatorConsistentEngagement, Min: 0.4},
					{Indicator: behavior.IndicatorMethodicalReading, Min: 0.4, Max: maxOf(1.0)},
				},
				TriggerKeywords: []string{"spec", "guide"},
				MinEvidence:     0.5,
			},
		},
		Transitions: map[behavior.State][]behavior.TransitionRow{
			behavior.StateCurious: {
				{To: behavior.StateContemplative, Probability: 0.35},
				{To: behavior.StateExcited, Probability: 0.25},
				{To: behavior.StateHesitant, Probability: 0.20},
				{To: behavior.StateInspired, Probability: 0.15},
				{To: behavior.StateOverwhelmed, Probability: 0.05},
			},
			behavior.StateContemplative: {
				{To: behavior.StateConfident, Probability: 0.30},
				{To: behavior.StateDoubtful, Probability: 0.25},
				{To: behavior.StateExcited, Probability: 0.20},
				{To: behavior.StateFrustrated, Probability: 0.15},
				{To: behavior.StateSatisfied, Probability: 0.10},
			},
			behavior.StateExcited: {
				{To: behavior.StateDelighted, Probability: 0.40},
				{To: behavior.StateAnticipatory, Probability: 0.30},
				{To: behavior.StateOverwhelmed, Probability: 0.15},
				{To: behavior.StateConfident, Probability: 0.15},
			},
			behavior.StateFrustrated: {
				{To: behavior.StateDoubtful, Probability: 0.35},
				{To: behavior.StateHesitant, Probability: 0.25},
				{To: behavior.StateCurious, Probability: 0.20},
				{To: behavior.StateSatisfied, Probability: 0.20},
			},
			behavior.StateHesitant: {
				{To: behavior.StateConfident, Probability: 0.40},
				{To: behavior.StateDoubtful, Probability: 0.30},
				{To: behavior.StateCurious, Probability: 0.30},
			},
			behavior.StateInspired: {
				{To: behavior.StateExcited, Probability: 0.50},
				{To: behavior.StateConfident, Probability: 0.30},
				{To: behavior.StateAnticipatory, Probability: 0.20},
			},
			behavior.StateOverwhelmed: {
				{To: behavior.StateFrustrated, Probability: 0.40},
				{To: behavior.StateHesitant, Probability: 0.35},
				{To: behavior.StateFocused, Probability: 0.25},
			},
			behavior.StateConfident: {
				{To: behavior.StateExcited, Probability: 0.45},
				{To: behavior.StateSatisfied, Probability: 0.35},
				{To: behavior.StateDelighted, Probability: 0.20},
			},
		},
		Adjustments: []behavior.TransitionAdjustment{
			{Action: "search", To: behavior.StateFrustrated, Delta: 0.2},
			{Action: "add_to_cart", To: behavior.StateConfident, Delta: 0.3},
		},
		Sequences: []behavior.SequenceTemplate{
			{
				Name:          "methodical_researcher",
				Actions:       []string{"view", "read", "compare", "research", "decide"},
				TimingSeconds: []float64{2, 8, 12, 15, 5},
			},
			{
				Name:          "impulsive_buyer",
				Actions:       []string{"view", "like", "add_to_cart"},
				TimingSeconds: []float64{1, 0.5, 0.3},
			},
			{
				Name:          "social_validator",
				Actions:       []string{"view", "reviews", "social_proof", "external_validation", "decide"},
				TimingSeconds: []float64{2, 5, 3, 8, 2},
			},
			{
				Name:          "price_optimizer",
				Actions:       []string{"search", "filter_price", "compare_prices", "external_research", "negotiate"},
				TimingSeconds: []float64{1, 2, 8, 10, 5},
			},
			{
				Name:          "experience_seeker",
				Actions:       []string{"explore", "story", "values", "community", "lifestyle_fit"},
				TimingSeconds: []float64{3, 6, 4, 5, 7},
			},
		},
		Personalization: behavior.PersonalizationTable{
			behavior.StateCurious: {
				Products:     []string{"featured_discoveries", "origin_stories"},
				UI:           map[string]bool{"show_exploration_hints": true, "expand_navigation": true},
				Tone:         "inviting",
				Style:        "gentle_guidance",
				PriorityInfo: []string{"what_makes_this_special", "where_it_comes_from"},
			},
			behavior.StateContemplative: {
				Products:     []string{"detailed_comparisons", "editor_notes"},
				UI:           map[string]bool{"show_specifications": true, "pin_details_panel": true},
				Tone:         "thoughtful",
				Style:        "information_rich",
				PriorityInfo: []string{"full_specifications", "honest_tradeoffs"},
			},
			behavior.StateExcited: {
				Products:     []string{"ready_to_ship", "complements"},
				UI:           map[string]bool{"enable_quick_actions": true, "show_availability": true},
				Tone:         "energetic",
				Style:        "momentum_preserving",
				PriorityInfo: []string{"availability", "delivery_speed"},
			},
			behavior.StateFrustrated: {
				Products:     []string{"bestsellers", "simple_choices"},
				UI:           map[string]bool{"simplify_layout": true, "show_help_entry": true},
				Tone:         "calm",
				Style:        "friction_free",
				PriorityInfo: []string{"how_to_get_help", "simplest_path"},
			},
			behavior.StateHesitant: {
				Products:     []string{"well_reviewed", "guaranteed"},
				UI:           map[string]bool{"show_guarantees": true, "show_reviews": true},
				Tone:         "reassuring",
				Style:        "trust_building",
				PriorityInfo: []string{"return_policy", "customer_experiences"},
			},
			behavior.StateConfident: {
				Products:     []string{"premium_selection", "complements"},
				UI:           map[string]bool{"streamline_checkout": true, "hide_introductions": true},
				Tone:         "direct",
				Style:        "efficient",
				PriorityInfo: []string{"checkout_path", "complementary_items"},
			},
			behavior.StateOverwhelmed: {
				Products:     []string{"curated_shortlist"},
				UI:           map[string]bool{"reduce_choices": true, "hide_secondary_panels": true},
				Tone:         "soothing",
				Style:        "minimal",
				PriorityInfo: []string{"top_three_options"},
			},
			behavior.StateInspired: {
				Products:     []string{"collections", "story_pieces"},
				UI:           map[string]bool{"feature_stories": true, "enable_collections": true},
				Tone:         "aspirational",
				Style:        "narrative",
				PriorityInfo: []string{"the_story", "the_community"},
			},
		},
	}
}
