package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handpoint/internal/frame"
)

type recordedEvent struct {
	kind   string
	id     string
	reason string
}

type fakeRecorder struct {
	events []recordedEvent
	err    error
}

func (r *fakeRecorder) Start(id string, at time.Time, point frame.Point3D) error {
	r.events = append(r.events, recordedEvent{kind: "start", id: id})
	return r.err
}

func (r *fakeRecorder) Refocused(id string) error {
	r.events = append(r.events, recordedEvent{kind: "refocus", id: id})
	return r.err
}

func (r *fakeRecorder) End(id string, at time.Time, reason string) error {
	r.events = append(r.events, recordedEvent{kind: "end", id: id, reason: reason})
	return r.err
}

var (
	t0      = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tracked = frame.TrackedPoint{RealWorld: frame.Point3D{Z: 800}, Valid: true}
	lost    = frame.TrackedPoint{}
)

func at(d time.Duration) time.Time { return t0.Add(d) }

func TestState_String(t *testing.T) {
	assert.Equal(t, "not in session", NotInSession.String())
	assert.Equal(t, "in session", InSession.String())
	assert.Equal(t, "quick refocus", QuickRefocus.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "started", EventStarted.String())
	assert.Equal(t, "ended", EventEnded.String())
	assert.Equal(t, "unknown", Event(9).String())
}

func TestNewTracker_DefaultTimeout(t *testing.T) {
	tr := NewTracker(0, nil, nil)
	assert.Equal(t, DefaultRefocusTimeout, tr.timeout)
	assert.Equal(t, NotInSession, tr.State())
	assert.Empty(t, tr.SessionID())
}

func TestTracker_Lifecycle(t *testing.T) {
	rec := &fakeRecorder{}
	tr := NewTracker(time.Second, rec, nil)

	// No hand, nothing happens.
	got := tr.Observe(lost, at(0))
	assert.False(t, got.Changed())
	assert.Equal(t, NotInSession, got.To)

	got = tr.Observe(tracked, at(100*time.Millisecond))
	require.Equal(t, EventStarted, got.Event)
	assert.Equal(t, NotInSession, got.From)
	assert.Equal(t, InSession, got.To)
	id := got.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, id, tr.SessionID())

	got = tr.Observe(tracked, at(200*time.Millisecond))
	assert.False(t, got.Changed())
	assert.Equal(t, id, got.SessionID)

	got = tr.Observe(lost, at(300*time.Millisecond))
	assert.Equal(t, EventLost, got.Event)
	assert.Equal(t, QuickRefocus, got.To)

	// Re-acquired within the timeout: same session.
	got = tr.Observe(tracked, at(900*time.Millisecond))
	assert.Equal(t, EventResumed, got.Event)
	assert.Equal(t, InSession, got.To)
	assert.Equal(t, id, got.SessionID)

	got = tr.Observe(lost, at(2*time.Second))
	assert.Equal(t, EventLost, got.Event)

	// Exactly at the timeout the session survives.
	got = tr.Observe(lost, at(3*time.Second))
	assert.False(t, got.Changed())
	assert.Equal(t, QuickRefocus, tr.State())

	got = tr.Observe(lost, at(3*time.Second+time.Millisecond))
	assert.Equal(t, EventEnded, got.Event)
	assert.Equal(t, ReasonTimeout, got.Reason)
	assert.Equal(t, id, got.SessionID)
	assert.Equal(t, NotInSession, tr.State())
	assert.Empty(t, tr.SessionID())

	// A new acquisition starts a new session.
	got = tr.Observe(tracked, at(4*time.Second))
	assert.Equal(t, EventStarted, got.Event)
	assert.NotEqual(t, id, got.SessionID)

	assert.Equal(t, []recordedEvent{
		{kind: "start", id: id},
		{kind: "refocus", id: id},
		{kind: "refocus", id: id},
		{kind: "end", id: id, reason: ReasonTimeout},
		{kind: "start", id: got.SessionID},
	}, rec.events)
}

func TestTracker_ManualEnd(t *testing.T) {
	rec := &fakeRecorder{}
	tr := NewTracker(time.Second, rec, nil)

	start := tr.Observe(tracked, at(0))
	require.Equal(t, EventStarted, start.Event)

	got := tr.End(at(time.Second), ReasonManual)
	assert.Equal(t, EventEnded, got.Event)
	assert.Equal(t, ReasonManual, got.Reason)
	assert.Equal(t, InSession, got.From)
	assert.Equal(t, NotInSession, got.To)

	// The hand is still there but a new session needs a fresh acquisition.
	got = tr.Observe(tracked, at(2*time.Second))
	assert.False(t, got.Changed())
	assert.Equal(t, NotInSession, tr.State())

	tr.Observe(lost, at(3*time.Second))
	got = tr.Observe(tracked, at(4*time.Second))
	assert.Equal(t, EventStarted, got.Event)
	assert.NotEqual(t, start.SessionID, got.SessionID)
}

func TestTracker_EndOutsideSession(t *testing.T) {
	rec := &fakeRecorder{}
	tr := NewTracker(time.Second, rec, nil)

	got := tr.End(at(0), ReasonShutdown)
	assert.False(t, got.Changed())
	assert.Empty(t, rec.events)
}

func TestTracker_EndDuringRefocus(t *testing.T) {
	tr := NewTracker(time.Second, nil, nil)

	tr.Observe(tracked, at(0))
	tr.Observe(lost, at(100*time.Millisecond))
	require.Equal(t, QuickRefocus, tr.State())

	got := tr.End(at(200*time.Millisecond), ReasonShutdown)
	assert.Equal(t, EventEnded, got.Event)
	assert.Equal(t, QuickRefocus, got.From)
	assert.Equal(t, ReasonShutdown, got.Reason)
}

func TestTracker_RecorderErrorsDoNotStopTracking(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	tr := NewTracker(time.Second, rec, nil)

	assert.Equal(t, EventStarted, tr.Observe(tracked, at(0)).Event)
	assert.Equal(t, EventLost, tr.Observe(lost, at(time.Second)).Event)
	assert.Equal(t, EventEnded, tr.Observe(lost, at(3*time.Second)).Event)
	assert.Len(t, rec.events, 3)
}
