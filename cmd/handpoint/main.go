package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/ayusman/handpoint/internal/config"
	"github.com/ayusman/handpoint/internal/store"
)

const (
	// Global flags.
	flagEnvFile  = "env-file"
	flagDB       = "db"
	flagLogLevel = "log-level"
)

// highgui and the tray event loop need the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "handpoint: %v\n", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	app := &cli.App{
		Name:  "handpoint",
		Usage: "isolate a tracked hand in depth frames and find its fingertips",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  flagEnvFile,
				Usage: "load environment variables from `FILE`",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:  flagDB,
				Usage: "sqlite database `PATH` for profiles and sessions",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level: debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			profileCommand(),
			sessionsCommand(),
			synthCommand(),
		},
		Action: runAction,
	}
	app.Flags = append(app.Flags, runFlags()...)
	return app
}

// loadConfig reads .env files and the environment, then applies the global
// flags that select where everything else comes from.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.StringSlice(flagEnvFile)...)
	if err != nil {
		return config.Config{}, err
	}
	if c.IsSet(flagDB) {
		cfg.DBPath = c.String(flagDB)
	}
	if c.IsSet(flagLogLevel) {
		level, err := config.ParseLogLevel(c.String(flagLogLevel))
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
}

// openStore opens the database at path, creating its directory.
func openStore(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, nil
}
