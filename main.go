package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"steamshelf/core"
	"steamshelf/gui"
	"steamshelf/platform"
	"steamshelf/tui"
)

func main() {
	platform.SetupConsole()

	ops := &core.Options{}
	if _, err := flags.Parse(ops); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	os.Exit(run(ops))
}

func run(ops *core.Options) int {
	cli := ops.NoGUI || ops.IsCommand()

	if err := initLogging(ops, cli); err != nil {
		fmt.Fprintln(os.Stderr, "logging disabled:", err)
	}

	shelf, err := makeShelf(ops)
	if err != nil {
		log.Error().Err(err).Msg("failed to load settings")
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if shelf.Preferences().DebugLogging {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case cli:
		err := core.RunCommand(ctx, shelf, ops, os.Stdout, os.Stderr)
		if err != nil {
			log.Error().Err(err).Msg("command failed")
			fmt.Fprintln(os.Stderr, err)
		}
		return core.ExitCode(err)
	case ops.TUI:
		if err := tui.Run(ctx, shelf, ops.Watch); err != nil {
			log.Error().Err(err).Msg("terminal ui failed")
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	default:
		gui.GuiMain(ctx, shelf, ops.Watch)
		return 0
	}
}

func initLogging(ops *core.Options, cli bool) error {
	var writers []io.Writer
	// tview owns the terminal in TUI mode, so logs only go to the file there
	if cli {
		writers = append(writers, core.ConsoleWriter())
	}

	if ops.LogLocation != "" {
		return core.InitLoggingWithPath(ops.LogLocation, ops.Verbose, writers...)
	}
	return core.InitLoggingWithDefaultPath(ops.Verbose, writers...)
}

// makeShelf loads the persisted settings and applies the command line and
// detected defaults on top without saving them.
func makeShelf(ops *core.Options) (*core.Shelf, error) {
	cfgPath := ops.ConfigPath
	if cfgPath == "" {
		var err error
		if cfgPath, err = core.DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	prefsPath, err := core.DefaultPreferencesPath()
	if err != nil {
		return nil, err
	}

	shelf, err := core.MakeShelf(afero.NewOsFs(), cfgPath, prefsPath)
	if err != nil {
		return nil, err
	}

	cfg := shelf.Config()
	if cfg.SteamPath == "" {
		if detected := platform.DetectSteamAppsDir(); detected != "" {
			log.Info().Str("path", detected).Msg("using detected steam library")
			cfg.SteamPath = detected
			if cfg.ImageCachePath == "" {
				cfg.ImageCachePath = platform.DefaultImageCacheDir(detected)
			}
			shelf.UseConfig(cfg)
		}
	}

	return shelf, nil
}
