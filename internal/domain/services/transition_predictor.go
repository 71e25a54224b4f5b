package services

import (
	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

// TransitionPredictor estimates where a user's state is headed next, biased
// by what they just did.
type TransitionPredictor struct {
	transitions map[behavior.State][]behavior.TransitionRow
	adjustments []behavior.TransitionAdjustment
}

func NewTransitionPredictor(lib *behavior.Library) *TransitionPredictor {
	return &TransitionPredictor{
		transitions: lib.Transitions,
		adjustments: lib.Adjustments,
	}
}

// Predict returns the adjusted, renormalized transition distribution for the
// current state plus the most likely next state. States without a table row
// are treated as absorbing: they predict themselves with certainty. Ties on
// probability resolve to the earlier row in the table, keeping the
// prediction stable across runs.
func (p *TransitionPredictor) Predict(current behavior.State, recentActions []string) (map[behavior.State]float64, behavior.State) {
	rows := p.transitions[current]
	if len(rows) == 0 {
		return map[behavior.State]float64{current: 1.0}, current
	}

	adjusted := make([]behavior.TransitionRow, len(rows))
	copy(adjusted, rows)
	for _, adj := range p.adjustments {
		if !containsString(recentActions, adj.Action) {
			continue
		}
		for i := range adjusted {
			if adjusted[i].To == adj.To {
				adjusted[i].Probability += adj.Delta
				if adjusted[i].Probability < 0 {
					adjusted[i].Probability = 0
				}
			}
		}
	}

	total := 0.0
	for _, row := range adjusted {
		total += row.Probability
	}
	if total <= 0 {
		return map[behavior.State]float64{current: 1.0}, current
	}

	distribution := make(map[behavior.State]float64, len(adjusted))
	best := adjusted[0].To
	bestProb := -1.0
	for _, row := range adjusted {
		prob := row.Probability / total
		distribution[row.To] = prob
		if prob > bestProb {
			best = row.To
			bestProb = prob
		}
	}
	return distribution, best
}
