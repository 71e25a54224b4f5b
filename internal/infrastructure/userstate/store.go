// Package userstate holds the engine's only mutable state: per-user event
// windows, profile histories, and session records, all in memory and bounded.
package userstate

import (
	"sync"
	"time"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/logging"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/metrics"
)

// UserState is everything the engine retains for one user. Callers must hold
// Mu while reading or mutating the contained collections; the store only
// guards the outer map.
type UserState struct {
	UserID         string
	Window         *behavior.EventWindow
	Profiles       []*behavior.BehavioralProfile
	Sessions       []behavior.SessionRecord
	CurrentSession *behavior.SessionRecord
	LastActivity   time.Time
	Mu             sync.Mutex
}

// Limits bounds the per-user collections and controls eviction.
type Limits struct {
	MaxEvents       int
	MaxEventAge     time.Duration
	ProfileHistory  int
	SessionHistory  int
	UserTTL         time.Duration
	CleanupInterval time.Duration
	MaxUsers        int
}

// Store is the per-user state registry. Safe for concurrent use.
type Store struct {
	users  map[string]*UserState
	mu     sync.RWMutex
	limits Limits
	logger *logging.ChanneledLogger
	stopCh chan struct{}
}

// NewStore creates the registry and starts the idle-user janitor.
func NewStore(limits Limits, logger *logging.ChanneledLogger) *Store {
	if logger != nil {
		logger.Session().Info("Initializing user state store",
			"maxUsers", limits.MaxUsers,
			"userTTL", limits.UserTTL,
		)
	}
	s := &Store{
		users:  make(map[string]*UserState),
		limits: limits,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	if limits.CleanupInterval > 0 {
		go s.janitor()
	}
	return s
}

// GetOrCreate returns the state for a user, creating it on first sight.
func (s *Store) GetOrCreate(userID string, now time.Time) *UserState {
	s.mu.RLock()
	state, exists := s.users[userID]
	s.mu.RUnlock()
	if exists {
		return state
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, exists = s.users[userID]; exists {
		return state
	}

	if s.limits.MaxUsers > 0 && len(s.users) >= s.limits.MaxUsers {
		s.evictOldestLocked()
	}

	state = &UserState{
		UserID:       userID,
		Window:       behavior.NewEventWindow(s.limits.MaxEvents, s.limits.MaxEventAge),
		LastActivity: now,
	}
	s.users[userID] = state
	metrics.TrackedUsers.Set(float64(len(s.users)))

	if s.logger != nil {
		s.logger.Session().Debug("User state created", "userId", userID, "trackedUsers", len(s.users))
	}
	return state
}

// Get returns the state for a user if one exists.
func (s *Store) Get(userID string) (*UserState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, exists := s.users[userID]
	return state, exists
}

// Count reports the number of tracked users.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Touch records user activity for TTL accounting.
func (s *Store) Touch(userID string, now time.Time) {
	if state, ok := s.Get(userID); ok {
		state.Mu.Lock()
		state.LastActivity = now
		state.Mu.Unlock()
	}
}

// AppendProfile records a resolved profile in the user's history, trimming to
// the configured limit. Caller must hold state.Mu.
func (s *Store) AppendProfile(state *UserState, profile *behavior.BehavioralProfile) {
	state.Profiles = append(state.Profiles, profile)
	if s.limits.ProfileHistory > 0 && len(state.Profiles) > s.limits.ProfileHistory {
		state.Profiles = state.Profiles[len(state.Profiles)-s.limits.ProfileHistory:]
	}
}

// AppendSession archives a completed session, trimming to the configured
// limit. Caller must hold state.Mu.
func (s *Store) AppendSession(state *UserState, record behavior.SessionRecord) {
	state.Sessions = append(state.Sessions, record)
	if s.limits.SessionHistory > 0 && len(state.Sessions) > s.limits.SessionHistory {
		state.Sessions = state.Sessions[len(state.Sessions)-s.limits.SessionHistory:]
	}
}

// evictOldestLocked drops the least recently active user. Caller holds s.mu.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, state := range s.users {
		if oldestID == "" || state.LastActivity.Before(oldest) {
			oldestID = id
			oldest = state.LastActivity
		}
	}
	if oldestID != "" {
		delete(s.users, oldestID)
		if s.logger != nil {
			s.logger.Session().Debug("Evicted least recently active user", "userId", oldestID)
		}
	}
}

func (s *Store) janitor() {
	ticker := time.NewTicker(s.limits.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now().UTC())
		case <-s.stopCh:
			return
		}
	}
}

// cleanup removes users idle beyond the TTL.
func (s *Store) cleanup(now time.Time) {
	if s.limits.UserTTL <= 0 {
		return
	}
	s.mu.Lock()
	removed := 0
	for id, state := range s.users {
		if now.Sub(state.LastActivity) > s.limits.UserTTL {
			delete(s.users, id)
			removed++
		}
	}
	remaining := len(s.users)
	s.mu.Unlock()

	metrics.TrackedUsers.Set(float64(remaining))
	if removed > 0 && s.logger != nil {
		s.logger.Session().Info("User state cleanup completed", "removed", removed, "remaining", remaining)
	}
}

// Close stops the janitor.
func (s *Store) Close() {
	close(s.stopCh)
}
