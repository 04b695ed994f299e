// Package config assembles handpoint's runtime configuration from defaults,
// stored tuning profiles, .env files and HANDPOINT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/handpoint/internal/handseg"
	"github.com/ayusman/handpoint/internal/session"
	"github.com/ayusman/handpoint/internal/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "HANDPOINT_"

// Environment variable names, without EnvPrefix.
const (
	EnvTolerance       = "TOLERANCE"
	EnvBinaryThreshold = "BINARY_THRESHOLD"
	EnvMinDefectDepth  = "MIN_DEFECT_DEPTH"
	EnvDisplayScale    = "DISPLAY_SCALE"
	EnvBlurSize        = "BLUR_SIZE"
	EnvDB              = "DB"
	EnvRecording       = "RECORDING"
	EnvProfile         = "PROFILE"
	EnvFPS             = "FPS"
	EnvLoop            = "LOOP"
	EnvHeadless        = "HEADLESS"
	EnvLogLevel        = "LOG_LEVEL"
	EnvRefocusTimeout  = "REFOCUS_TIMEOUT"
)

// ErrInvalidValue is returned when a configuration value cannot be parsed.
var ErrInvalidValue = errors.New("invalid configuration value")

// Config holds the runtime configuration.
type Config struct {
	Params handseg.Params

	// DBPath is the SQLite database holding profiles and the session log.
	// Empty disables the store.
	DBPath string
	// RecordingDir is the directory of a recorded frame sequence. Empty
	// plays the built-in synthetic scene.
	RecordingDir string
	// Profile names the stored tuning profile to load.
	Profile string
	// FPS paces playback. Zero uses the recording's own rate.
	FPS int
	// Loop restarts playback at the end of the stream.
	Loop bool
	// Headless disables the preview windows.
	Headless bool

	LogLevel       slog.Level
	RefocusTimeout time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Params:         handseg.DefaultParams(),
		DBPath:         DefaultDBPath(),
		LogLevel:       slog.LevelInfo,
		RefocusTimeout: session.DefaultRefocusTimeout,
	}
}

// DefaultDBPath returns ~/.handpoint/handpoint.db, or a path relative to the
// working directory when the home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "handpoint.db"
	}
	return filepath.Join(home, ".handpoint", "handpoint.db")
}

// Load returns the default configuration overridden by environment
// variables. Variables from the given .env files (".env" when none are
// given) are loaded first without overriding the process environment; a
// missing file is ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HANDPOINT_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	var errs []error
	parse := func(name string, set func(string) error) {
		v, ok := get(name)
		if !ok {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidValue, EnvPrefix, name, v, err))
		}
	}

	parse(EnvTolerance, func(v string) error {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return err
		}
		c.Params.Tolerance = uint16(n)
		return nil
	})
	parse(EnvBinaryThreshold, func(v string) error {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return err
		}
		c.Params.BinaryThreshold = uint8(n)
		return nil
	})
	parse(EnvMinDefectDepth, func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Params.MinDefectDepth = n
		return nil
	})
	parse(EnvDisplayScale, func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.Params.DisplayScale = f
		return nil
	})
	parse(EnvBlurSize, func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Params.BlurSize = n
		return nil
	})
	parse(EnvFPS, func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.FPS = n
		return nil
	})
	parse(EnvLoop, func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Loop = b
		return nil
	})
	parse(EnvHeadless, func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Headless = b
		return nil
	})
	parse(EnvLogLevel, func(v string) error {
		l, err := ParseLogLevel(v)
		if err != nil {
			return err
		}
		c.LogLevel = l
		return nil
	})
	parse(EnvRefocusTimeout, func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.RefocusTimeout = d
		return nil
	})

	if v, ok := get(EnvDB); ok {
		c.DBPath = v
	}
	if v, ok := get(EnvRecording); ok {
		c.RecordingDir = v
	}
	if v, ok := get(EnvProfile); ok {
		c.Profile = v
	}

	return errors.Join(errs...)
}

// ApplyProfile replaces the tuning parameters with those of p.
func (c *Config) ApplyProfile(p *store.Profile) {
	c.Params = handseg.Params{
		Tolerance:       uint16(p.Tolerance),
		BinaryThreshold: uint8(p.BinaryThreshold),
		MinDefectDepth:  p.MinDefectDepth,
		DisplayScale:    p.DisplayScale,
		BlurSize:        p.BlurSize,
	}
	c.Profile = p.Name
}

// ProfileFromParams returns an unsaved profile named name holding params.
func ProfileFromParams(name string, params handseg.Params) *store.Profile {
	return &store.Profile{
		Name:            name,
		Tolerance:       int(params.Tolerance),
		BinaryThreshold: int(params.BinaryThreshold),
		MinDefectDepth:  params.MinDefectDepth,
		DisplayScale:    params.DisplayScale,
		BlurSize:        params.BlurSize,
	}
}

// Validate reports whether the configuration can run the application.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.FPS < 0 {
		return fmt.Errorf("%w: fps must be non-negative, got %d", ErrInvalidValue, c.FPS)
	}
	if c.RefocusTimeout < 0 {
		return fmt.Errorf("%w: refocus timeout must be non-negative, got %v", ErrInvalidValue, c.RefocusTimeout)
	}
	return nil
}

// ParseLogLevel parses debug, info, warn or error, case-insensitively.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
