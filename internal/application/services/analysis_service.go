package services

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	domainservices "github.com/canvasthink/resonance-go/internal/domain/services"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/logging"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/metrics"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
	"github.com/canvasthink/resonance-go/internal/infrastructure/userstate"
	"github.com/canvasthink/resonance-go/pkg/config"
)

// AnalysisService runs the full inference pipeline for a user: ingest,
// score, match, resolve, predict, and generate insight. All mutable state
// lives in the user state store; the domain engine underneath is pure.
type AnalysisService struct {
	store       *userstate.Store
	sessions    *SessionService
	reporting   *ReportingService
	scorer      *domainservices.BehavioralScorer
	matcher     *domainservices.PatternMatcher
	resolver    *domainservices.StateResolver
	predictor   *domainservices.TransitionPredictor
	insights    *domainservices.InsightGenerator
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAnalysisService creates the analysis orchestrator.
func NewAnalysisService(
	store *userstate.Store,
	sessions *SessionService,
	reporting *ReportingService,
	scorer *domainservices.BehavioralScorer,
	matcher *domainservices.PatternMatcher,
	resolver *domainservices.StateResolver,
	predictor *domainservices.TransitionPredictor,
	insights *domainservices.InsightGenerator,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *AnalysisService {
	return &AnalysisService{
		store:       store,
		sessions:    sessions,
		reporting:   reporting,
		scorer:      scorer,
		matcher:     matcher,
		resolver:    resolver,
		predictor:   predictor,
		insights:    insights,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// AnalysisResult bundles one inference run's outputs.
type AnalysisResult struct {
	Profile *behavior.BehavioralProfile     `json:"profile"`
	Insight behavior.PersonalizationInsight `json:"insight"`
}

// Ingest appends events to the user's window without running inference. An
// empty sessionID leaves session selection to the idle-rollover rules.
func (s *AnalysisService) Ingest(userID, sessionID string, events []behavior.InteractionEvent, now time.Time) int {
	marker := s.perfTracker.StartOperation("session:ingest", userID)
	defer s.perfTracker.CompleteOperation(marker)

	state := s.store.GetOrCreate(userID, now)
	state.Mu.Lock()
	defer state.Mu.Unlock()

	accepted := s.ingestLocked(state, sessionID, events, now)
	marker.AddMetadata("accepted", accepted)
	return accepted
}

// Analyze ingests the given events (which may be empty) and runs the full
// pipeline over the user's current window. A window with no events resolves
// to the documented default profile rather than an error. A non-empty
// requestedSession continues or opens that session.
func (s *AnalysisService) Analyze(userID, requestedSession string, events []behavior.InteractionEvent, now time.Time) AnalysisResult {
	marker := s.perfTracker.StartOperation("analysis:run", userID)
	defer s.perfTracker.CompleteOperation(marker)
	start := time.Now()

	state := s.store.GetOrCreate(userID, now)
	state.Mu.Lock()
	defer state.Mu.Unlock()

	s.ingestLocked(state, requestedSession, events, now)
	window := state.Window.Events()
	sessionID := state.CurrentSession.SessionID

	var profile *behavior.BehavioralProfile
	if len(window) == 0 {
		fallback := behavior.DefaultProfile(userID, sessionID, now)
		profile = &fallback
	} else {
		profile = s.runPipeline(userID, sessionID, window, state.Profiles, now)
	}
	s.store.AppendProfile(state, profile)

	insight := s.insights.Generate(profile, window, now)
	if s.reporting != nil && len(window) > 0 {
		s.reporting.Record(deriveOutcome(state, window, profile), now)
	}

	elapsed := time.Since(start)
	metrics.AnalysisRuns.WithLabelValues(string(profile.PrimaryState)).Inc()
	metrics.AnalysisDuration.Observe(elapsed.Seconds())
	if s.logger != nil {
		s.logger.LogAnalysis(userID, sessionID, string(profile.PrimaryState), profile.Confidence, elapsed)
	}

	return AnalysisResult{Profile: profile, Insight: insight}
}

// ingestLocked normalizes and stores events. Caller holds state.Mu. Session
// bookkeeping runs before the window grows so target novelty is judged
// against what was already seen.
func (s *AnalysisService) ingestLocked(state *userstate.UserState, requestedSession string, events []behavior.InteractionEvent, now time.Time) int {
	s.sessions.EnsureSession(state, requestedSession, now)

	normalized := make([]behavior.InteractionEvent, 0, len(events))
	for _, e := range events {
		if e.Action == "" {
			continue
		}
		e.Normalize(state.CurrentSession.SessionID, now)
		normalized = append(normalized, e)
	}

	s.sessions.RecordEvents(state, normalized, now)
	for _, e := range normalized {
		state.Window.Append(e)
		metrics.EventsIngested.Inc()
	}
	state.LastActivity = now
	return len(normalized)
}

func (s *AnalysisService) runPipeline(
	userID, sessionID string,
	window []behavior.InteractionEvent,
	history []*behavior.BehavioralProfile,
	now time.Time,
) *behavior.BehavioralProfile {
	scoring := s.perfTracker.StartOperation("engine:scoring", userID)
	scores := s.scorer.Score(window)
	s.perfTracker.CompleteOperation(scoring)

	matching := s.perfTracker.StartOperation("engine:matching", userID)
	candidates := s.matcher.Match(scores, behavior.RecentTargets(window, config.RecentTargetCount))
	s.perfTracker.CompleteOperation(matching)

	profile := &behavior.BehavioralProfile{
		ID:        ulid.Make().String(),
		UserID:    userID,
		SessionID: sessionID,
		CreatedAt: now,
	}
	resolution := s.perfTracker.StartOperation("engine:resolution", userID)
	s.resolver.Resolve(profile, candidates, scores, window, history)
	s.perfTracker.CompleteOperation(resolution)

	prediction := s.perfTracker.StartOperation("engine:prediction", userID)
	probabilities, next := s.predictor.Predict(
		profile.PrimaryState,
		behavior.RecentActions(window, config.RecentActionCount),
	)
	s.perfTracker.CompleteOperation(prediction)
	profile.TransitionProbabilities = probabilities
	profile.PredictedNextState = next
	return profile
}

// frustrationActions are the actions counted as friction when deriving an
// outcome record from a window.
var frustrationActions = []string{"back", "error", "retry", "help"}

// deriveOutcome summarizes one analysis run as a flat outcome record:
// completion time from event durations, error count from friction actions,
// satisfaction from engagement scaled by resolution confidence. Caller holds
// state.Mu.
func deriveOutcome(state *userstate.UserState, window []behavior.InteractionEvent, profile *behavior.BehavioralProfile) behavior.OutcomeRecord {
	var total float64
	errors := 0
	for _, e := range window {
		total += e.DurationSeconds
		for _, action := range frustrationActions {
			if e.Action == action {
				errors++
				break
			}
		}
	}

	engagement := 0.5
	if state.CurrentSession != nil && state.CurrentSession.Metrics.EngagementScore > 0 {
		engagement = state.CurrentSession.Metrics.EngagementScore
	}

	return behavior.OutcomeRecord{
		UserID:                profile.UserID,
		SessionID:             profile.SessionID,
		CompletionTimeSeconds: total,
		ErrorCount:            errors,
		SatisfactionScore:     behavior.Clamp01(engagement * profile.Confidence),
	}
}

// LatestProfile returns the newest resolved profile for a user.
func (s *AnalysisService) LatestProfile(userID string) (*behavior.BehavioralProfile, bool) {
	state, ok := s.store.Get(userID)
	if !ok {
		return nil, false
	}
	state.Mu.Lock()
	defer state.Mu.Unlock()
	if len(state.Profiles) == 0 {
		return nil, false
	}
	return state.Profiles[len(state.Profiles)-1], true
}

// ProfileHistory returns up to limit recent profiles, oldest first.
func (s *AnalysisService) ProfileHistory(userID string, limit int) []*behavior.BehavioralProfile {
	state, ok := s.store.Get(userID)
	if !ok {
		return nil
	}
	state.Mu.Lock()
	defer state.Mu.Unlock()

	profiles := state.Profiles
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[len(profiles)-limit:]
	}
	out := make([]*behavior.BehavioralProfile, len(profiles))
	copy(out, profiles)
	return out
}
