// Package services contains the pure inference engine of the resonance
// platform. Every function here is a deterministic, side-effect-free
// computation over an event window; state lives with the caller.
package services

import (
	"math"
	"sort"
	"strings"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

// ClickDecisionGapSeconds is the inter-event gap below which a click counts
// as decisive. This replaces the reference system's simulated click-pressure
// readings with a measurable proxy.
const ClickDecisionGapSeconds = 2.0

type dwellBand struct {
	indicator string
	min, max  float64
}

type scrollBand struct {
	indicator   string
	min, max    float64
	consistency float64
}

var dwellBands = []dwellBand{
	{behavior.IndicatorQuickGlance, 0, 0.5},
	{behavior.IndicatorBriefInterest, 0.5, 2.0},
	{behavior.IndicatorFocusedAttention, 2.0, 8.0},
	{behavior.IndicatorDeepEngagement, 8.0, 20.0},
	{behavior.IndicatorIntensiveAnalysis, 20.0, math.Inf(1)},
}

var scrollBands = []scrollBand{
	{behavior.IndicatorMethodicalReading, 10, 50, 0.8},
	{behavior.IndicatorCasualScanning, 50, 150, 0.6},
	{behavior.IndicatorActiveSearching, 150, 300, 0.4},
	{behavior.IndicatorOverwhelmedScrolling, 300, 800, 0.2},
	{behavior.IndicatorFranticBehavior, 800, math.Inf(1), 0.1},
}

var methodicalPatterns = [][]string{
	{"view", "hover", "click"},
	{"search", "filter", "compare"},
	{"hover", "read", "consider"},
}

var (
	comparisonActions  = []string{"compare", "filter", "sort", "search"}
	explorationActions = []string{"view", "explore", "browse", "discover", "story"}
)

// BehavioralScorer converts an event window into normalized indicator
// scores. It is safe for concurrent use; the sequence library it holds is
// immutable.
type BehavioralScorer struct {
	sequences []behavior.SequenceTemplate
}

// NewBehavioralScorer builds a scorer over the library's sequence templates.
func NewBehavioralScorer(lib *behavior.Library) *BehavioralScorer {
	return &BehavioralScorer{sequences: lib.Sequences}
}

// Score computes the full indicator score set for a window. Missing inputs
// for a family leave that family's indicators absent, and absent indicators
// contribute no evidence downstream. Given the same window, Score always
// returns the same values.
func (s *BehavioralScorer) Score(events []behavior.InteractionEvent) behavior.IndicatorScores {
	scores := behavior.IndicatorScores{}
	if len(events) == 0 {
		return scores
	}

	s.scoreDwellFamily(events, scores)
	s.scoreScrollFamily(events, scores)
	s.scoreRhythmFamily(events, scores)
	s.scoreSequenceFamily(events, scores)
	s.scoreActionMix(events, scores)
	s.scoreClickDecisiveness(events, scores)

	for k, v := range scores {
		scores[k] = behavior.Clamp01(v)
	}
	return scores
}

func (s *BehavioralScorer) scoreDwellFamily(events []behavior.InteractionEvent, scores behavior.IndicatorScores) {
	var dwells []float64
	for _, e := range events {
		if e.DwellSeconds > 0 {
			dwells = append(dwells, e.DwellSeconds)
		}
	}
	if len(dwells) == 0 {
		return
	}

	avg := mean(dwells)
	variance := variance(dwells)

	scores[behavior.IndicatorDeepConsideration] = math.Min(1, avg/10.0)
	scores[behavior.IndicatorQuickScanning] = math.Max(0, 1-avg/5.0)

	// Band confidence scales inversely with variance, floored at 0.5.
	for _, band := range dwellBands {
		if avg >= band.min && avg < band.max {
			conf := 1.0 - variance/math.Max(1.0, avg)
			scores[band.indicator] = math.Max(0.5, math.Min(1.0, conf))
			break
		}
	}

	s.scoreDwellTrend(dwells, avg, scores)
}

func (s *BehavioralScorer) scoreDwellTrend(dwells []float64, avg float64, scores behavior.IndicatorScores) {
	if len(dwells) < 3 {
		return
	}
	slope := linearSlope(dwells)
	rel := slope / math.Max(1.0, avg)
	cv := math.Sqrt(variance(dwells)) / math.Max(1.0, avg)

	switch {
	case rel <= -0.05:
		scores[behavior.IndicatorDiminishingInterest] = math.Min(1, math.Abs(rel)*4)
	case rel >= 0.05:
		scores[behavior.IndicatorEscalatingInterest] = math.Min(1, rel*4)
	case cv <= 0.25:
		scores[behavior.IndicatorConsistentEngagement] = 1 - cv
	case cv >= 0.75:
		scores[behavior.IndicatorErraticBehavior] = math.Min(1, cv)
	}
}

func (s *BehavioralScorer) scoreScrollFamily(events []behavior.InteractionEvent, scores behavior.IndicatorScores) {
	var velocities []float64
	for _, e := range events {
		if e.ScrollVelocity > 0 {
			velocities = append(velocities, e.ScrollVelocity)
		}
	}
	if len(velocities) == 0 {
		return
	}

	avg := mean(velocities)
	consistency := 1.0 - variance(velocities)/math.Max(1.0, avg)

	scores[behavior.IndicatorOverwhelmedScrolling] = math.Min(1, math.Max(0, (avg-200)/300))
	scores[behavior.IndicatorMethodicalReading] = math.Min(1, math.Max(0, (100-avg)/90))

	// A band matches only when observed consistency reaches 70% of the
	// band's required consistency.
	for _, band := range scrollBands {
		if avg >= band.min && avg < band.max && consistency >= band.consistency*0.7 {
			conf := math.Max(0.5, math.Min(1.0, consistency/band.consistency))
			if conf > scores[band.indicator] {
				scores[band.indicator] = conf
			}
			break
		}
	}
}

func (s *BehavioralScorer) scoreRhythmFamily(events []behavior.InteractionEvent, scores behavior.IndicatorScores) {
	gaps := interEventGaps(events)
	if len(gaps) == 0 {
		return
	}

	avgGap := mean(gaps)
	scores[behavior.IndicatorSessionContinuity] = math.Max(0, 1-avgGap/60.0)

	if len(gaps) >= 2 {
		cv := math.Sqrt(variance(gaps)) / math.Max(1.0, avgGap)
		scores[behavior.IndicatorSteadyRhythm] = math.Max(0, 1-cv)
	}
}

func (s *BehavioralScorer) scoreSequenceFamily(events []behavior.InteractionEvent, scores behavior.IndicatorScores) {
	actions := behavior.RecentActions(events, 5)
	scores[behavior.IndicatorMethodicalBehavior] = methodicalScore(actions)
	scores[behavior.IndicatorImpulsiveBehavior] = impulsiveScore(actions)

	if len(events) < 3 {
		return
	}
	allActions := behavior.RecentActions(events, 0)
	timings := make([]float64, len(events))
	for i, e := range events {
		timings[i] = e.DurationSeconds
	}

	// Overlap is plain set overlap and timing is truncated to the shorter
	// vector, matching the reference scoring. Order-insensitive on purpose.
	for _, seq := range s.sequences {
		overlap := jaccard(allActions, seq.Actions)
		timing := timingSimilarity(timings, seq.TimingSeconds)
		scores[seq.Name] = overlap*0.7 + timing*0.3
	}
}

func (s *BehavioralScorer) scoreActionMix(events []behavior.InteractionEvent, scores behavior.IndicatorScores) {
	total := float64(len(events))
	var comparisons, explorations, searches float64
	for _, e := range events {
		action := strings.ToLower(e.Action)
		if containsAny(action, comparisonActions) {
			comparisons++
		}
		if containsAny(action, explorationActions) {
			explorations++
		}
		if action == "search" {
			searches++
		}
	}
	scores[behavior.IndicatorComparisonTendency] = math.Min(1, comparisons/total)
	scores[behavior.IndicatorExplorationDepth] = math.Min(1, explorations/total)
	scores[behavior.IndicatorSearchRefinement] = math.Min(1, searches/total)
}

func (s *BehavioralScorer) scoreClickDecisiveness(events []behavior.InteractionEvent, scores behavior.IndicatorScores) {
	var clicks, decisive float64
	for i, e := range events {
		if e.Action != "click" {
			continue
		}
		clicks++
		if i == 0 {
			decisive++
			continue
		}
		gap := e.Timestamp.Sub(events[i-1].Timestamp).Seconds()
		if gap <= ClickDecisionGapSeconds {
			decisive++
		}
	}
	if clicks == 0 {
		return
	}
	confident := decisive / clicks
	scores[behavior.IndicatorConfidentClicking] = confident
	scores[behavior.IndicatorHesitantClicking] = 1 - confident
}

func methodicalScore(actions []string) float64 {
	score := 0.0
	for _, pattern := range methodicalPatterns {
		if containsSubsequence(actions, pattern) {
			score += 0.3
		}
	}
	return math.Min(1, score)
}

func impulsiveScore(actions []string) float64 {
	if len(actions) == 0 {
		return 0
	}
	indicators := 0.0
	last2 := actions
	if len(last2) > 2 {
		last2 = last2[len(last2)-2:]
	}
	if containsString(last2, "add_to_cart") {
		indicators++
	}
	if float64(uniqueCount(actions)) < float64(len(actions))*0.6 {
		indicators++
	}
	if containsString(actions, "click") && len(actions) <= 3 {
		indicators++
	}
	return indicators / 3.0
}

func containsSubsequence(sequence, pattern []string) bool {
	if len(pattern) > len(sequence) {
		return false
	}
	for i := 0; i+len(pattern) <= len(sequence); i++ {
		match := true
		for j, p := range pattern {
			if sequence[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := toSet(a)
	setB := toSet(b)
	intersection := 0
	for k := range setA {
		if setB[k] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// timingSimilarity correlates the two timing vectors after normalizing each
// by its sum, truncated to the shorter length. Undefined correlations score
// the neutral 0.5.
func timingSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.5
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0.5
	}
	an := normalizeBySum(a[:n])
	bn := normalizeBySum(b[:n])
	r, ok := pearson(an, bn)
	if !ok {
		return 0.5
	}
	return math.Max(0, r)
}

func normalizeBySum(v []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	sum = math.Max(1.0, sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

func interEventGaps(events []behavior.InteractionEvent) []float64 {
	if len(events) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gap := events[i].Timestamp.Sub(events[i-1].Timestamp).Seconds()
		if gap < 0 {
			gap = 0
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func uniqueCount(list []string) int {
	return len(toSet(list))
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func variance(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	m := mean(v)
	sum := 0.0
	for _, x := range v {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(v))
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func percentile(v []float64, p float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	idx := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// linearSlope fits y = a + bx over index positions and returns b.
func linearSlope(v []float64) float64 {
	n := float64(len(v))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range v {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func pearson(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) < 2 {
		return 0, false
	}
	ma, mb := mean(a), mean(b)
	var cov, va, vb float64
	for i := range a {
		da := a[i] - ma
		db := b[i] - mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0, false
	}
	return cov / math.Sqrt(va*vb), true
}
