package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayusman/handpoint/internal/app"
	"github.com/ayusman/handpoint/internal/capture"
	"github.com/ayusman/handpoint/internal/config"
	"github.com/ayusman/handpoint/internal/handseg"
	"github.com/ayusman/handpoint/internal/present"
	"github.com/ayusman/handpoint/internal/session"
	"github.com/ayusman/handpoint/internal/store"
	"github.com/ayusman/handpoint/internal/tray"
)

const (
	flagTolerance       = "tolerance"
	flagBinaryThreshold = "binary-threshold"
	flagMinDefectDepth  = "min-defect-depth"
	flagDisplayScale    = "display-scale"
	flagBlurSize        = "blur-size"
	flagRecording       = "recording"
	flagProfile         = "profile"
	flagHeadless        = "headless"
	flagFPS             = "fps"
	flagLoop            = "loop"
	flagRefocusTimeout  = "refocus-timeout"
	flagTray            = "tray"
	flagAsync           = "async"
)

// demoLostFrames drops tracking in the synthetic demo so sessions move
// through quick refocus.
var demoLostFrames = []int{40, 41, 42}

// runFlags returns fresh flag values so every cli.App gets its own.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{Name: flagTolerance, Usage: "half-width of the depth band around the hand"},
		&cli.UintFlag{Name: flagBinaryThreshold, Usage: "intensity at or above which a pixel is hand"},
		&cli.IntFlag{Name: flagMinDefectDepth, Usage: "fixed-point (x256) depth a defect must exceed"},
		&cli.Float64Flag{Name: flagDisplayScale, Usage: "depth to intensity factor"},
		&cli.IntFlag{Name: flagBlurSize, Usage: "odd box blur size"},
		&cli.StringFlag{Name: flagRecording, Usage: "replay the recording in `DIR` instead of the synthetic demo"},
		&cli.StringFlag{Name: flagProfile, Usage: "tuning profile `NAME` from the store"},
		&cli.BoolFlag{Name: flagHeadless, Usage: "do not open windows"},
		&cli.IntFlag{Name: flagFPS, Usage: "pace playback to at most this many frames per second"},
		&cli.BoolFlag{Name: flagLoop, Usage: "restart the source at end of stream"},
		&cli.DurationFlag{Name: flagRefocusTimeout, Usage: "how long a lost hand keeps its session"},
		&cli.BoolFlag{Name: flagTray, Usage: "control a headless run from the system tray"},
		&cli.BoolFlag{Name: flagAsync, Usage: "present windows on the main thread, decoupled from the frame loop"},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "run the frame loop",
		Flags:  runFlags(),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := applyRunFlags(c, &cfg); err != nil {
		return err
	}

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg, profile, err := resolveProfile(c, st, cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("handpoint starting",
		"profile", cfg.Profile,
		"recording", cfg.RecordingDir,
		"tolerance", cfg.Params.Tolerance,
		"min_defect_depth", cfg.Params.MinDefectDepth,
		"headless", cfg.Headless)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := handseg.NewPipeline(cfg.Params, logger)
	if err != nil {
		return err
	}

	sessions := st.Sessions()
	tracker := session.NewTracker(cfg.RefocusTimeout, sessions, logger)

	var tr *tray.Tray
	if c.Bool(flagTray) {
		tr = tray.New()
	}

	onSession := func(t session.Transition) {
		if t.Event == session.EventStarted && profile != nil {
			if err := sessions.AttachProfile(t.SessionID, profile.ID); err != nil {
				logger.Warn("failed to attach profile to session", "session", t.SessionID, "error", err)
			}
		}
		if tr != nil {
			tr.SetSessionState(t.To.String())
		}
	}

	r := &runner{
		cfg:       cfg,
		logger:    logger,
		pipeline:  pipeline,
		tracker:   tracker,
		onSession: onSession,
		tray:      tr,
		async:     c.Bool(flagAsync),
	}
	return r.run(ctx)
}

// runner assembles the frame loop for one invocation of run.
type runner struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *handseg.Pipeline
	tracker   *session.Tracker
	onSession func(session.Transition)
	tray      *tray.Tray
	async     bool
}

func (r *runner) source() capture.Source {
	if r.cfg.RecordingDir != "" {
		rec := capture.NewRecording(r.cfg.RecordingDir, r.cfg.Loop)
		if r.cfg.FPS > 0 {
			rec.SetFPS(r.cfg.FPS)
		}
		return rec
	}

	r.logger.Info("no recording given, replaying the synthetic open hand")
	pb := capture.NewPlayback(capture.HandSequence(120, demoLostFrames...), r.cfg.Loop)
	fps := r.cfg.FPS
	if fps == 0 {
		fps = 30
	}
	pb.SetFPS(fps)
	return pb
}

func (r *runner) newApp(p present.Presenter) (*app.App, error) {
	return app.New(app.Config{
		Source:    r.source(),
		Presenter: p,
		Pipeline:  r.pipeline,
		Tracker:   r.tracker,
		OnSession: r.onSession,
		Logger:    r.logger,
	})
}

func (r *runner) run(ctx context.Context) error {
	switch {
	case r.tray != nil:
		return r.runTray(ctx)
	case r.cfg.Headless:
		return r.runSerial(ctx, present.NewDiscard())
	case r.async:
		return r.runAsync(ctx)
	default:
		return r.runSerial(ctx, present.NewWindow(present.DefaultKeyDelay))
	}
}

// runSerial presents each frame before pulling the next.
func (r *runner) runSerial(ctx context.Context, p present.Presenter) error {
	defer func() {
		if err := p.Close(); err != nil {
			r.logger.Warn("failed to close presenter", "error", err)
		}
	}()

	a, err := r.newApp(p)
	if err != nil {
		return err
	}
	err = a.Run(ctx)
	r.report(a)
	return err
}

// runAsync runs the frame loop on its own goroutine and the windows on this
// one.
func (r *runner) runAsync(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	window := present.NewWindow(present.DefaultKeyDelay)
	defer window.Close()

	async := present.NewAsync(window)
	a, err := r.newApp(async)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		err := a.Run(ctx)
		async.Close()
		done <- err
	}()

	if err := async.Run(ctx); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	err = <-done
	r.report(a)
	r.logger.Debug("async presenter", "dropped", async.Dropped())
	return err
}

// runTray runs the systray event loop on this goroutine and feeds its menu
// commands to a headless frame loop.
func (r *runner) runTray(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	discard := present.NewDiscard()
	discard.SetDelay(present.DefaultKeyDelay * time.Millisecond)
	a, err := r.newApp(present.WithControls(discard, r.tray.Commands()))
	if err != nil {
		return err
	}

	r.tray.OnQuit(cancel)

	done := make(chan error, 1)
	go func() {
		err := a.Run(ctx)
		r.tray.Quit()
		done <- err
	}()
	go func() {
		<-ctx.Done()
		r.tray.Quit()
	}()

	r.tray.Run()
	cancel()
	err = <-done
	r.report(a)
	return err
}

func (r *runner) report(a *app.App) {
	s := a.Stats()
	r.logger.Info("handpoint stopped",
		"frames", s.Frames,
		"tracked", s.Tracked,
		"candidates", s.Candidates,
		"skipped", s.Skipped,
		"sessions", s.Sessions)
}

// applyRunFlags overrides cfg with the run flags given on the command line.
func applyRunFlags(c *cli.Context, cfg *config.Config) error {
	var errs []error

	if c.IsSet(flagTolerance) {
		if v := c.Uint(flagTolerance); v > math.MaxUint16 {
			errs = append(errs, fmt.Errorf("%w: --%s %d out of range", config.ErrInvalidValue, flagTolerance, v))
		} else {
			cfg.Params.Tolerance = uint16(v)
		}
	}
	if c.IsSet(flagBinaryThreshold) {
		if v := c.Uint(flagBinaryThreshold); v > math.MaxUint8 {
			errs = append(errs, fmt.Errorf("%w: --%s %d out of range", config.ErrInvalidValue, flagBinaryThreshold, v))
		} else {
			cfg.Params.BinaryThreshold = uint8(v)
		}
	}
	if c.IsSet(flagMinDefectDepth) {
		cfg.Params.MinDefectDepth = c.Int(flagMinDefectDepth)
	}
	if c.IsSet(flagDisplayScale) {
		cfg.Params.DisplayScale = c.Float64(flagDisplayScale)
	}
	if c.IsSet(flagBlurSize) {
		cfg.Params.BlurSize = c.Int(flagBlurSize)
	}
	if c.IsSet(flagRecording) {
		cfg.RecordingDir = c.String(flagRecording)
	}
	if c.IsSet(flagProfile) {
		cfg.Profile = c.String(flagProfile)
	}
	if c.IsSet(flagHeadless) {
		cfg.Headless = c.Bool(flagHeadless)
	}
	if c.IsSet(flagFPS) {
		cfg.FPS = c.Int(flagFPS)
	}
	if c.IsSet(flagLoop) {
		cfg.Loop = c.Bool(flagLoop)
	}
	if c.IsSet(flagRefocusTimeout) {
		cfg.RefocusTimeout = c.Duration(flagRefocusTimeout)
	}

	return errors.Join(errs...)
}

// resolveProfile layers the named profile under the environment and flags.
// Without a name the active profile setting is used, if any.
func resolveProfile(c *cli.Context, st *store.Store, cfg config.Config) (config.Config, *store.Profile, error) {
	name := cfg.Profile
	if name == "" {
		active, err := st.Settings().Get(store.SettingActiveProfile)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return cfg, nil, err
		}
		name = active
	}
	if name == "" {
		return cfg, nil, nil
	}

	p, err := st.Profiles().GetByName(name)
	if err != nil {
		return cfg, nil, fmt.Errorf("profile %q: %w", name, err)
	}

	layered := config.Default()
	layered.ApplyProfile(p)
	if err := layered.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, nil, err
	}
	if err := applyRunFlags(c, &layered); err != nil {
		return cfg, nil, err
	}
	layered.DBPath = cfg.DBPath
	layered.LogLevel = cfg.LogLevel
	// A profile picked from the env or the setting keeps its own name.
	layered.Profile = p.Name
	return layered, p, nil
}
