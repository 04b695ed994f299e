// Package app runs the handpoint frame loop: pull a frame, follow the
// tracking session, isolate the hand, present the images, react to input.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/handpoint/internal/capture"
	"github.com/ayusman/handpoint/internal/handseg"
	"github.com/ayusman/handpoint/internal/present"
	"github.com/ayusman/handpoint/internal/session"
)

// ErrMissingDependency is returned by New when a required part is nil.
var ErrMissingDependency = errors.New("missing dependency")

// Config holds the parts the application is assembled from.
type Config struct {
	Source    capture.Source
	Presenter present.Presenter
	Pipeline  *handseg.Pipeline

	// Tracker follows sessions. A tracker without a recorder is created
	// when nil.
	Tracker *session.Tracker

	// OnSession is called after every session transition.
	OnSession func(session.Transition)

	// PauseDelay is how long a paused loop waits between re-presenting the
	// last frame. Defaults to present.DefaultKeyDelay milliseconds.
	PauseDelay time.Duration

	Logger *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Stats summarizes a run.
type Stats struct {
	// Frames counts frames that went through the pipeline.
	Frames int
	// Tracked counts frames with a valid tracked hand.
	Tracked int
	// Candidates counts defects kept as fingertip candidates.
	Candidates int
	// Skipped counts frames dropped because of source or pipeline errors.
	Skipped int
	// Sessions counts sessions started.
	Sessions int
}

// App is the frame loop.
type App struct {
	config    Config
	source    capture.Source
	presenter present.Presenter
	pipeline  *handseg.Pipeline
	tracker   *session.Tracker
	logger    *slog.Logger
	now       func() time.Time
	pauseWait time.Duration

	mu          sync.RWMutex
	stats       Stats
	paused      bool
	showDepth   bool
	showFrameID bool
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("%w: source is nil", ErrMissingDependency)
	}
	if config.Presenter == nil {
		return nil, fmt.Errorf("%w: presenter is nil", ErrMissingDependency)
	}
	if config.Pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline is nil", ErrMissingDependency)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	tracker := config.Tracker
	if tracker == nil {
		tracker = session.NewTracker(0, nil, logger)
	}
	pauseWait := config.PauseDelay
	if pauseWait <= 0 {
		pauseWait = present.DefaultKeyDelay * time.Millisecond
	}

	return &App{
		config:    config,
		source:    config.Source,
		presenter: config.Presenter,
		pipeline:  config.Pipeline,
		tracker:   tracker,
		logger:    logger,
		now:       now,
		pauseWait: pauseWait,
		showDepth: true,
	}, nil
}

// Stats returns a snapshot of the run counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// IsPaused returns whether frame pulling is paused.
func (a *App) IsPaused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// ShowsDepth returns whether the depth view is presented.
func (a *App) ShowsDepth() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.showDepth
}

// ShowsFrameID returns whether frame numbers are stamped on the overlay.
func (a *App) ShowsFrameID() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.showFrameID
}

// Tracker returns the session tracker.
func (a *App) Tracker() *session.Tracker {
	return a.tracker
}

// Pipeline returns the hand segmentation pipeline.
func (a *App) Pipeline() *handseg.Pipeline {
	return a.pipeline
}
