package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handpoint/internal/capture"
	"github.com/ayusman/handpoint/internal/handseg"
	"github.com/ayusman/handpoint/internal/present"
	"github.com/ayusman/handpoint/internal/session"
)

// Run opens the source and processes frames until the stream ends, a quit
// command arrives or ctx is cancelled. Cancellation is checked between
// frames; a frame in flight always completes.
//
// Loop logic:
// 1. Pull the next frame, or re-present the last one every pause delay
//    while paused
// 2. Feed tracking validity to the session tracker
// 3. Run the hand segmentation pipeline
// 4. Present the images and apply the returned command
//
// Frames the source or pipeline fail on are skipped. Only a source that
// cannot be opened or a failing presenter stop the loop with an error.
func (a *App) Run(ctx context.Context) error {
	if err := a.source.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if err := a.source.Close(); err != nil {
			a.logger.Warn("failed to close source", "error", err)
		}
	}()
	defer func() {
		a.observe(a.tracker.End(a.now(), session.ReasonShutdown))
	}()

	a.logger.Info("frame loop started")

	var last *handseg.Result
	defer func() {
		if last != nil {
			last.Close()
		}
	}()

	for {
		if ctx.Err() != nil {
			a.logger.Info("frame loop cancelled", "frames", a.Stats().Frames)
			return nil
		}

		if a.IsPaused() && last != nil {
			cmd, err := a.presenter.Present(a.images(last))
			if err != nil {
				return fmt.Errorf("present: %w", err)
			}
			if a.handle(cmd) {
				return nil
			}
			// Async and headless presenters return at once.
			a.idle(ctx)
			continue
		}

		f, err := a.source.NextFrame(ctx)
		if errors.Is(err, capture.ErrEndOfStream) {
			a.logger.Info("end of stream", "frames", a.Stats().Frames)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			a.skip()
			a.logger.Warn("failed to read frame", "error", err)
			continue
		}

		a.observe(a.tracker.Observe(f.Hand, a.now()))

		res, err := a.pipeline.Process(f)
		if err != nil {
			a.skip()
			a.logger.Warn("failed to process frame", "frame", f.Seq, "error", err)
			continue
		}

		if a.ShowsFrameID() {
			handseg.StampFrameID(&res.Overlay, res.Seq)
		}
		a.count(res)

		if last != nil {
			last.Close()
		}
		last = res

		cmd, err := a.presenter.Present(a.images(res))
		if err != nil {
			return fmt.Errorf("present: %w", err)
		}
		if a.handle(cmd) {
			return nil
		}
	}
}

// idle waits out the pause delay or until ctx is done.
func (a *App) idle(ctx context.Context) {
	t := time.NewTimer(a.pauseWait)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// images wraps the result for the presenter without copying.
func (a *App) images(res *handseg.Result) present.Images {
	return present.Images{
		Seq:       res.Seq,
		DepthView: res.DepthView,
		Overlay:   res.Overlay,
		ColorView: res.ColorView,
		ShowDepth: a.ShowsDepth(),
	}
}

// handle applies a presenter command and reports whether the loop must stop.
func (a *App) handle(cmd present.Command) bool {
	switch cmd {
	case present.CommandNone:
		return false

	case present.CommandQuit:
		a.logger.Info("quit requested")
		return true

	case present.CommandEndSession:
		a.observe(a.tracker.End(a.now(), session.ReasonManual))
		return false
	}

	a.mu.Lock()
	switch cmd {
	case present.CommandTogglePause:
		a.paused = !a.paused
	case present.CommandToggleDepth:
		a.showDepth = !a.showDepth
	case present.CommandToggleFrameID:
		a.showFrameID = !a.showFrameID
	}
	paused, depth, frameID := a.paused, a.showDepth, a.showFrameID
	a.mu.Unlock()

	a.logger.Debug("command", "command", cmd.String(),
		"paused", paused, "depth", depth, "frame_id", frameID)
	return false
}

// observe forwards a session transition to the callback and counts starts.
func (a *App) observe(tr session.Transition) {
	if !tr.Changed() {
		return
	}
	if tr.Event == session.EventStarted {
		a.mu.Lock()
		a.stats.Sessions++
		a.mu.Unlock()
	}
	if a.config.OnSession != nil {
		a.config.OnSession(tr)
	}
}

func (a *App) count(res *handseg.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Frames++
	if res.Tracked {
		a.stats.Tracked++
	}
	a.stats.Candidates += len(res.Geometry.Candidates)
}

func (a *App) skip() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Skipped++
}
