package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
)

func TestEnsureSessionOpensAndReusesSession(t *testing.T) {
	_, sessions, store := newTestServices(t)
	now := time.Now().UTC()
	state := store.GetOrCreate("user-1", now)

	state.Mu.Lock()
	defer state.Mu.Unlock()

	first := sessions.EnsureSession(state, "", now)
	require.NotNil(t, first)
	assert.NotEmpty(t, first.SessionID)
	assert.Equal(t, now, first.StartTime)

	state.LastActivity = now
	second := sessions.EnsureSession(state, "", now.Add(5*time.Minute))
	assert.Equal(t, first.SessionID, second.SessionID, "activity inside the idle threshold keeps the session")
}

func TestEnsureSessionRollsOverAfterIdleGap(t *testing.T) {
	_, sessions, store := newTestServices(t)
	now := time.Now().UTC()
	state := store.GetOrCreate("user-1", now)

	state.Mu.Lock()
	defer state.Mu.Unlock()

	first := sessions.EnsureSession(state, "", now)
	sessions.RecordEvents(state, []behavior.InteractionEvent{
		{Action: "view", Target: "a", DurationSeconds: 10, DwellSeconds: 4},
	}, now)

	later := now.Add(45 * time.Minute)
	second := sessions.EnsureSession(state, "", later)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	require.Len(t, state.Sessions, 1)
	closed := state.Sessions[0]
	assert.Equal(t, first.SessionID, closed.SessionID)
	assert.Equal(t, now, closed.EndTime, "closed session ends at last activity, not at rollover")
	assert.Greater(t, closed.Metrics.EngagementScore, 0.0)
}

func TestEnsureSessionHonorsRequestedID(t *testing.T) {
	_, sessions, store := newTestServices(t)
	now := time.Now().UTC()
	state := store.GetOrCreate("user-1", now)

	state.Mu.Lock()
	defer state.Mu.Unlock()

	first := sessions.EnsureSession(state, "sess-a", now)
	assert.Equal(t, "sess-a", first.SessionID)

	state.LastActivity = now
	same := sessions.EnsureSession(state, "sess-a", now.Add(time.Minute))
	assert.Equal(t, "sess-a", same.SessionID, "matching id continues the open session")

	next := sessions.EnsureSession(state, "sess-b", now.Add(2*time.Minute))
	assert.Equal(t, "sess-b", next.SessionID)
	require.Len(t, state.Sessions, 1, "mismatched id closes the previous session")
	assert.Equal(t, "sess-a", state.Sessions[0].SessionID)
}

func TestRecordEventsFoldsMetrics(t *testing.T) {
	_, sessions, store := newTestServices(t)
	now := time.Now().UTC()
	state := store.GetOrCreate("user-1", now)

	state.Mu.Lock()
	defer state.Mu.Unlock()

	sessions.EnsureSession(state, "", now)
	sessions.RecordEvents(state, []behavior.InteractionEvent{
		{Action: "view", Target: "a", DurationSeconds: 5, DwellSeconds: 4},
		{Action: "click", Target: "b", DurationSeconds: 3, DwellSeconds: 2},
	}, now)

	metrics := state.CurrentSession.Metrics
	assert.Equal(t, 2, metrics.InteractionCount)
	assert.Equal(t, 8.0, metrics.TotalDurationSeconds)
	assert.Equal(t, 2, metrics.UniqueTargets)
	assert.InDelta(t, 3.0, metrics.AvgDwellSeconds, 0.001)
	assert.Greater(t, metrics.EngagementScore, 0.0)
}

func TestRecordEventsCountsTargetsOnce(t *testing.T) {
	_, sessions, store := newTestServices(t)
	now := time.Now().UTC()
	state := store.GetOrCreate("user-1", now)

	state.Mu.Lock()
	sessions.EnsureSession(state, "", now)
	sessions.RecordEvents(state, []behavior.InteractionEvent{
		{Action: "view", Target: "a"},
		{Action: "view", Target: "a"},
	}, now)
	firstCount := state.CurrentSession.Metrics.UniqueTargets

	for _, e := range []behavior.InteractionEvent{{Action: "view", Target: "a", Timestamp: now}} {
		state.Window.Append(e)
	}
	sessions.RecordEvents(state, []behavior.InteractionEvent{
		{Action: "view", Target: "a"},
		{Action: "view", Target: "b"},
	}, now.Add(time.Second))
	state.Mu.Unlock()

	assert.Equal(t, 1, firstCount)
	assert.Equal(t, 2, state.CurrentSession.Metrics.UniqueTargets, "only the unseen target adds depth")
}

func TestAggregateIncludesCurrentSession(t *testing.T) {
	analysis, sessions, _ := newTestServices(t)
	now := time.Now().UTC()
	analysis.Ingest("user-1", "", viewEvents(now.Add(-time.Minute), 3), now)

	insight, ok := sessions.Aggregate("user-1", now)

	require.True(t, ok)
	assert.Equal(t, 1, insight.SessionCount)
	assert.Equal(t, behavior.StageDiscovery, insight.JourneyStage)

	_, ok = sessions.Aggregate("stranger", now)
	assert.False(t, ok)
}

func TestSignatureReflectsLiveWindow(t *testing.T) {
	analysis, sessions, _ := newTestServices(t)
	now := time.Now().UTC()
	analysis.Ingest("user-1", "", []behavior.InteractionEvent{
		{Action: "view", Target: "a", DwellSeconds: 6},
		{Action: "view", Target: "b", DwellSeconds: 10},
	}, now)

	sig, ok := sessions.Signature("user-1", now)

	require.True(t, ok)
	assert.Equal(t, "user-1", sig.UserID)
	assert.InDelta(t, 8.0, sig.AvgDwellSeconds, 0.001)
	assert.Equal(t, 0.5, sig.ReturnFrequency, "single session keeps the neutral default")

	_, ok = sessions.Signature("stranger", now)
	assert.False(t, ok)
}
