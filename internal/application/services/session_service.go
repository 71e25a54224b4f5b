// Package services contains the application-layer orchestration: stateful
// coordination of the pure domain engine against the user state store.
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
)

// SessionService tracks session boundaries and derives cross-session
// insight. Sessions roll over when a user has been idle past the threshold;
// the closed session is archived and a fresh one opened.
type SessionService struct {
	store         *userstate.Store
	aggregator    *domainservices.SessionAggregator
	idleThreshold time.Duration
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewSessionService creates the session service.
func NewSessionService(
	store *userstate.Store,
	aggregator *domainservices.SessionAggregator,
	idleThreshold time.Duration,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *SessionService {
	return &SessionService{
		store:         store,
		aggregator:    aggregator,
		idleThreshold: idleThreshold,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// EnsureSession opens a session if none exists and rolls over the current
// one when the user has been idle past the threshold. A non-empty requestedID
// names the session the caller wants: it continues a matching open session
// and closes a mismatched one. Caller holds state.Mu.
func (s *SessionService) EnsureSession(state *userstate.UserState, requestedID string, now time.Time) *behavior.SessionRecord {
	if state.CurrentSession == nil {
		state.CurrentSession = s.newSession(state.UserID, requestedID, now)
		return state.CurrentSession
	}

	switch {
	case requestedID != "" && requestedID != state.CurrentSession.SessionID:
		s.rollover(state, requestedID, now)
	case now.Sub(state.LastActivity) > s.idleThreshold:
		s.rollover(state, "", now)
	}
	return state.CurrentSession
}

func (s *SessionService) newSession(userID, sessionID string, now time.Time) *behavior.SessionRecord {
	if sessionID == "" {
		sessionID = ulid.Make().String()
	}
	return &behavior.SessionRecord{
		SessionID: sessionID,
		UserID:    userID,
		StartTime: now,
	}
}

// rollover archives the current session and opens a new one, generating an
// id when nextID is empty. Caller holds state.Mu.
func (s *SessionService) rollover(state *userstate.UserState, nextID string, now time.Time) {
	marker := s.perfTracker.StartOperation("session:rollover", state.UserID)
	defer s.perfTracker.CompleteOperation(marker)

	closed := *state.CurrentSession
	closed.EndTime = state.LastActivity
	closed.Metrics.EngagementScore = domainservices.SessionEngagement(closed.Metrics, latestIntensity(state))

	s.store.AppendSession(state, closed)
	state.CurrentSession = s.newSession(state.UserID, nextID, now)

	metrics.SessionsRolledOver.Inc()
	if s.logger != nil {
		s.logger.Session().Info("Session rolled over",
			"userId", state.UserID,
			"closedSession", closed.SessionID,
			"engagement", closed.Metrics.EngagementScore,
			"newSession", state.CurrentSession.SessionID,
		)
	}
}

// RecordEvents folds newly ingested events into the current session's
// metrics. Caller holds state.Mu.
func (s *SessionService) RecordEvents(state *userstate.UserState, events []behavior.InteractionEvent, now time.Time) {
	session := state.CurrentSession
	if session == nil || len(events) == 0 {
		return
	}

	targets := make(map[string]bool)
	var dwellTotal float64
	for _, e := range events {
		session.Metrics.TotalDurationSeconds += e.DurationSeconds
		session.Metrics.InteractionCount++
		dwellTotal += e.DwellSeconds
		if e.Target != "" {
			targets[e.Target] = true
		}
	}
	session.Metrics.UniqueTargets += countNewTargets(state, targets)
	if session.Metrics.InteractionCount > 0 {
		prior := session.Metrics.AvgDwellSeconds * float64(session.Metrics.InteractionCount-len(events))
		session.Metrics.AvgDwellSeconds = (prior + dwellTotal) / float64(session.Metrics.InteractionCount)
	}
	session.Metrics.EngagementScore = domainservices.SessionEngagement(session.Metrics, latestIntensity(state))
	state.LastActivity = now
}

// Aggregate computes the multi-session insight over archived sessions plus
// the in-progress one.
func (s *SessionService) Aggregate(userID string, now time.Time) (behavior.MultiSessionInsight, bool) {
	marker := s.perfTracker.StartOperation("session:aggregation", userID)
	defer s.perfTracker.CompleteOperation(marker)

	state, ok := s.store.Get(userID)
	if !ok {
		return behavior.MultiSessionInsight{}, false
	}

	state.Mu.Lock()
	history := make([]behavior.SessionRecord, len(state.Sessions))
	copy(history, state.Sessions)
	if state.CurrentSession != nil {
		history = append(history, *state.CurrentSession)
	}
	state.Mu.Unlock()

	return s.aggregator.Aggregate(history, now), true
}

// Signature builds the user's behavioral fingerprint from live state.
func (s *SessionService) Signature(userID string, now time.Time) (behavior.BehavioralSignature, bool) {
	state, ok := s.store.Get(userID)
	if !ok {
		return behavior.BehavioralSignature{}, false
	}

	state.Mu.Lock()
	events := state.Window.Events()
	history := make([]behavior.SessionRecord, len(state.Sessions))
	copy(history, state.Sessions)
	state.Mu.Unlock()

	return s.aggregator.BuildSignature(userID, events, history, now), true
}

func latestIntensity(state *userstate.UserState) behavior.Intensity {
	if len(state.Profiles) == 0 {
		return behavior.IntensityMedium
	}
	return state.Profiles[len(state.Profiles)-1].Intensity
}

// countNewTargets counts targets not yet seen in the user's window, so
// repeated visits to the same target don't inflate depth.
func countNewTargets(state *userstate.UserState, targets map[string]bool) int {
	seen := make(map[string]bool)
	for _, e := range state.Window.Events() {
		seen[e.Target] = true
	}
	fresh := 0
	for t := range targets {
		if !seen[t] {
			fresh++
		}
	}
	return fresh
}
