package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayusman/handpoint/internal/capture"
	"github.com/ayusman/handpoint/internal/config"
	"github.com/ayusman/handpoint/internal/store"
)

const (
	flagOut      = "out"
	flagFrames   = "frames"
	flagLost     = "lost"
	flagLimit    = "limit"
	flagActivate = "activate"
)

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "manage tuning profiles",
		Subcommands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "save the current tuning parameters as a profile",
				ArgsUsage: "NAME",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: flagActivate, Usage: "make the profile the active one"},
				}, runFlags()...),
				Action: profileSaveAction,
			},
			{
				Name:   "list",
				Usage:  "list profiles",
				Action: profileListAction,
			},
			{
				Name:      "use",
				Usage:     "make a profile the active one, or clear it without NAME",
				ArgsUsage: "[NAME]",
				Action:    profileUseAction,
			},
			{
				Name:      "delete",
				Usage:     "delete a profile",
				ArgsUsage: "NAME",
				Action:    profileDeleteAction,
			},
		},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "list recent tracking sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: flagLimit, Value: 20, Usage: "number of sessions to show"},
		},
		Action: sessionsAction,
	}
}

func synthCommand() *cli.Command {
	return &cli.Command{
		Name:  "synth",
		Usage: "write a synthetic open hand recording",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagOut, Required: true, Usage: "recording `DIR`"},
			&cli.IntFlag{Name: flagFrames, Value: 90, Usage: "number of frames"},
			&cli.IntSliceFlag{Name: flagLost, Usage: "frame indices where tracking is lost"},
			&cli.IntFlag{Name: flagFPS, Value: 30, Usage: "frame rate stored in the index"},
		},
		Action: synthAction,
	}
}

// withStore opens the configured store for the duration of fn.
func withStore(c *cli.Context, fn func(st *store.Store) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func requireName(c *cli.Context) (string, error) {
	name := c.Args().First()
	if name == "" {
		return "", fmt.Errorf("%s: profile name required", c.Command.Name)
	}
	return name, nil
}

func profileSaveAction(c *cli.Context) error {
	name, err := requireName(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := applyRunFlags(c, &cfg); err != nil {
		return err
	}
	if err := cfg.Params.Validate(); err != nil {
		return err
	}

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	p := config.ProfileFromParams(name, cfg.Params)
	if err := st.Profiles().Save(p); err != nil {
		return fmt.Errorf("save profile %q: %w", name, err)
	}
	if c.Bool(flagActivate) {
		if err := st.Settings().Set(store.SettingActiveProfile, name); err != nil {
			return err
		}
	}

	fmt.Printf("Saved profile %s (tolerance %d, threshold %d, min defect depth %d)\n",
		name, p.Tolerance, p.BinaryThreshold, p.MinDefectDepth)
	return nil
}

func profileListAction(c *cli.Context) error {
	return withStore(c, func(st *store.Store) error {
		profiles, err := st.Profiles().List()
		if err != nil {
			return err
		}
		active, err := st.Settings().Get(store.SettingActiveProfile)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tNAME\tTOLERANCE\tTHRESHOLD\tMIN DEPTH\tSCALE\tBLUR")
		for _, p := range profiles {
			mark := ""
			if p.Name == active {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%g\t%d\n", mark, p.Name,
				p.Tolerance, p.BinaryThreshold, p.MinDefectDepth, p.DisplayScale, p.BlurSize)
		}
		return w.Flush()
	})
}

func profileUseAction(c *cli.Context) error {
	name := c.Args().First()
	return withStore(c, func(st *store.Store) error {
		if name == "" {
			return st.Settings().Delete(store.SettingActiveProfile)
		}
		if _, err := st.Profiles().GetByName(name); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		return st.Settings().Set(store.SettingActiveProfile, name)
	})
}

func profileDeleteAction(c *cli.Context) error {
	name, err := requireName(c)
	if err != nil {
		return err
	}
	return withStore(c, func(st *store.Store) error {
		p, err := st.Profiles().GetByName(name)
		if err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		if err := st.Profiles().Delete(p.ID); err != nil {
			return err
		}

		active, err := st.Settings().Get(store.SettingActiveProfile)
		if err == nil && active == name {
			return st.Settings().Delete(store.SettingActiveProfile)
		}
		return nil
	})
}

func sessionsAction(c *cli.Context) error {
	return withStore(c, func(st *store.Store) error {
		sessions, err := st.Sessions().ListRecent(c.Int(flagLimit))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tREFOCUS\tEND")
		for _, s := range sessions {
			duration, reason := "active", "-"
			if !s.Active() {
				duration = s.Duration().Round(time.Millisecond).String()
				reason = s.EndReason
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID,
				s.StartedAt.Local().Format(time.DateTime), duration, s.RefocusCount, reason)
		}
		return w.Flush()
	})
}

func synthAction(c *cli.Context) error {
	n := c.Int(flagFrames)
	if n <= 0 {
		return fmt.Errorf("--%s must be positive, got %d", flagFrames, n)
	}

	out := c.String(flagOut)
	frames := capture.HandSequence(n, c.IntSlice(flagLost)...)
	if err := capture.WriteRecording(out, frames, c.Int(flagFPS)); err != nil {
		return err
	}

	fmt.Printf("Wrote %d frames to %s\n", n, out)
	return nil
}
