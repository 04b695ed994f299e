// Package session follows hand tracking validity across frames and derives
// tracking sessions from it: a session starts when a hand is acquired,
// survives short losses in a quick-refocus state and ends when the hand
// stays lost for longer than the refocus timeout.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handpoint/internal/frame"
)

// DefaultRefocusTimeout is how long a lost hand may take to come back before
// its session ends.
const DefaultRefocusTimeout = 3 * time.Second

// End reasons.
const (
	ReasonTimeout  = "timeout"
	ReasonManual   = "manual"
	ReasonShutdown = "shutdown"
)

// State is the session state of the tracker.
type State int

const (
	// NotInSession means no hand has been acquired.
	NotInSession State = iota
	// InSession means the hand is currently tracked.
	InSession
	// QuickRefocus means the hand was lost and may still be re-acquired.
	QuickRefocus
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotInSession:
		return "not in session"
	case InSession:
		return "in session"
	case QuickRefocus:
		return "quick refocus"
	default:
		return "unknown"
	}
}

// Event names what happened on a transition.
type Event int

const (
	// EventNone means the state did not change.
	EventNone Event = iota
	// EventStarted means a new session began.
	EventStarted
	// EventLost means the hand was lost and refocus began.
	EventLost
	// EventResumed means the hand came back during refocus.
	EventResumed
	// EventEnded means the session ended.
	EventEnded
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventStarted:
		return "started"
	case EventLost:
		return "lost"
	case EventResumed:
		return "resumed"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Transition describes the outcome of one observation.
type Transition struct {
	From      State
	To        State
	Event     Event
	SessionID string
	At        time.Time
	// Reason is set when Event is EventEnded.
	Reason string
}

// Changed reports whether the transition moved to a different state.
func (t Transition) Changed() bool {
	return t.Event != EventNone
}

// Recorder persists session lifecycle events.
type Recorder interface {
	Start(id string, at time.Time, point frame.Point3D) error
	Refocused(id string) error
	End(id string, at time.Time, reason string) error
}

// Tracker derives sessions from per-frame tracking validity.
type Tracker struct {
	timeout  time.Duration
	recorder Recorder
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	id        string
	lostAt    time.Time
	awaitLoss bool
}

// NewTracker creates a Tracker. A non-positive timeout selects
// DefaultRefocusTimeout. recorder may be nil.
func NewTracker(timeout time.Duration, recorder Recorder, logger *slog.Logger) *Tracker {
	if timeout <= 0 {
		timeout = DefaultRefocusTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		timeout:  timeout,
		recorder: recorder,
		logger:   logger,
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SessionID returns the current session ID, or "" outside a session.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Observe feeds the tracked point of one frame observed at now.
func (t *Tracker) Observe(hand frame.TrackedPoint, now time.Time) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr := Transition{From: t.state, To: t.state, SessionID: t.id, At: now}

	switch t.state {
	case NotInSession:
		if !hand.Valid {
			t.awaitLoss = false
			break
		}
		if t.awaitLoss {
			break
		}
		t.id = uuid.New().String()
		t.state = InSession
		tr.Event = EventStarted
		tr.SessionID = t.id
		if t.recorder != nil {
			if err := t.recorder.Start(t.id, now, hand.RealWorld); err != nil {
				t.logger.Warn("failed to record session start", "session", t.id, "error", err)
			}
		}

	case InSession:
		if hand.Valid {
			break
		}
		t.state = QuickRefocus
		t.lostAt = now
		tr.Event = EventLost
		if t.recorder != nil {
			if err := t.recorder.Refocused(t.id); err != nil {
				t.logger.Warn("failed to record refocus", "session", t.id, "error", err)
			}
		}

	case QuickRefocus:
		if hand.Valid {
			t.state = InSession
			tr.Event = EventResumed
			break
		}
		if now.Sub(t.lostAt) > t.timeout {
			tr = t.end(tr, now, ReasonTimeout)
		}
	}

	tr.To = t.state
	t.log(tr)
	return tr
}

// End ends the current session, if any, with the given reason. The tracker
// does not start a new session until the hand has been lost once.
func (t *Tracker) End(now time.Time, reason string) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr := Transition{From: t.state, To: t.state, SessionID: t.id, At: now}
	if t.state == NotInSession {
		return tr
	}

	tr = t.end(tr, now, reason)
	t.awaitLoss = true
	tr.To = t.state
	t.log(tr)
	return tr
}

// end closes the session. Callers hold t.mu.
func (t *Tracker) end(tr Transition, now time.Time, reason string) Transition {
	if t.recorder != nil {
		if err := t.recorder.End(t.id, now, reason); err != nil {
			t.logger.Warn("failed to record session end", "session", t.id, "error", err)
		}
	}
	t.state = NotInSession
	t.id = ""
	t.lostAt = time.Time{}
	tr.Event = EventEnded
	tr.Reason = reason
	return tr
}

func (t *Tracker) log(tr Transition) {
	switch tr.Event {
	case EventNone:
		return
	case EventEnded:
		t.logger.Info("session "+tr.Event.String(), "session", tr.SessionID, "reason", tr.Reason)
	default:
		t.logger.Info("session "+tr.Event.String(), "session", tr.SessionID, "state", tr.To.String())
	}
}
