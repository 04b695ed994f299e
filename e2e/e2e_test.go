package e2e

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/handpoint/internal/app"
	"github.com/ayusman/handpoint/internal/capture"
	"github.com/ayusman/handpoint/internal/config"
	"github.com/ayusman/handpoint/internal/handseg"
	"github.com/ayusman/handpoint/internal/present"
	"github.com/ayusman/handpoint/internal/session"
	"github.com/ayusman/handpoint/internal/store"
)

// clock returns one second per call so refocus timeouts do not depend on
// how fast the frames are processed.
func clock() func() time.Time {
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestE2E_RecordedSessionWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	recDir := filepath.Join(tmpDir, "rec")

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	t.Run("WriteRecording", func(t *testing.T) {
		frames := capture.HandSequence(12, 3, 4, 5)
		if err := capture.WriteRecording(recDir, frames, 0); err != nil {
			t.Fatalf("WriteRecording() error = %v", err)
		}
	})

	profile := config.ProfileFromParams("e2e", handseg.DefaultParams())
	t.Run("SaveProfile", func(t *testing.T) {
		if err := s.Profiles().Save(profile); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	})

	cfg := config.Default()
	cfg.ApplyProfile(profile)
	cfg.RefocusTimeout = 1500 * time.Millisecond

	pipeline, err := handseg.NewPipeline(cfg.Params, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	sessions := s.Sessions()
	display := present.NewDiscard()
	application, err := app.New(app.Config{
		Source:    capture.NewRecording(recDir, false),
		Presenter: display,
		Pipeline:  pipeline,
		Tracker:   session.NewTracker(cfg.RefocusTimeout, sessions, nil),
		OnSession: func(tr session.Transition) {
			if tr.Event == session.EventStarted {
				sessions.AttachProfile(tr.SessionID, profile.ID)
			}
		},
		Now: clock(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	t.Run("Run", func(t *testing.T) {
		if err := application.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		stats := application.Stats()
		if stats.Frames != 12 {
			t.Errorf("frames = %d, want 12", stats.Frames)
		}
		if stats.Tracked != 9 {
			t.Errorf("tracked = %d, want 9", stats.Tracked)
		}
		if stats.Sessions != 2 {
			t.Errorf("sessions = %d, want 2", stats.Sessions)
		}
		if stats.Candidates < 9*4 {
			t.Errorf("candidates = %d, want at least %d", stats.Candidates, 9*4)
		}
		if display.Frames() != 12 {
			t.Errorf("presented = %d, want 12", display.Frames())
		}
	})

	t.Run("SessionLog", func(t *testing.T) {
		logged, err := sessions.ListRecent(10)
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(logged) != 2 {
			t.Fatalf("sessions = %d, want 2", len(logged))
		}

		// Most recent first.
		second, first := logged[0], logged[1]
		if first.EndReason != session.ReasonTimeout {
			t.Errorf("first end reason = %q, want %q", first.EndReason, session.ReasonTimeout)
		}
		if first.RefocusCount != 1 {
			t.Errorf("first refocus count = %d, want 1", first.RefocusCount)
		}
		if second.EndReason != session.ReasonShutdown {
			t.Errorf("second end reason = %q, want %q", second.EndReason, session.ReasonShutdown)
		}
		for _, ss := range logged {
			if ss.ProfileID != profile.ID {
				t.Errorf("session %s profile = %q, want %q", ss.ID, ss.ProfileID, profile.ID)
			}
			if ss.Active() {
				t.Errorf("session %s still active", ss.ID)
			}
		}
	})
}

func TestE2E_ProfileTuningChangesGeometry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	run := func(params handseg.Params) app.Stats {
		pipeline, err := handseg.NewPipeline(params, nil)
		if err != nil {
			t.Fatalf("NewPipeline() error = %v", err)
		}
		application, err := app.New(app.Config{
			Source:    capture.NewPlayback(capture.HandSequence(3), false),
			Presenter: present.NewDiscard(),
			Pipeline:  pipeline,
			Now:       clock(),
		})
		if err != nil {
			t.Fatalf("app.New() error = %v", err)
		}
		if err := application.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return application.Stats()
	}

	defaults := run(handseg.DefaultParams())
	if defaults.Candidates == 0 {
		t.Fatal("expected fingertip candidates with default tuning")
	}

	strict := handseg.DefaultParams()
	strict.MinDefectDepth = 1 << 20
	if got := run(strict).Candidates; got != 0 {
		t.Errorf("candidates = %d with an unreachable depth, want 0", got)
	}
}
