package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
)

const APP_NAME = "SteamShelf"

type Options struct {
	NoGUI        bool   `short:"u" long:"no-gui" description:"Run in CLI mode with no GUI"`
	TUI          bool   `short:"t" long:"tui" description:"Run the terminal browser instead of the GUI"`
	List         bool   `short:"l" long:"list" description:"Print the installed games"`
	JSON         bool   `short:"j" long:"json" description:"Print --list and --search output as JSON"`
	Search       string `short:"q" long:"search" description:"Print the installed games matching a name" value-name:"QUERY"`
	Launch       int    `short:"p" long:"launch" description:"Launch the game with this app id" value-name:"APPID"`
	Details      int    `short:"d" long:"details" description:"Open the Steam page of the game with this app id" value-name:"APPID"`
	Validate     bool   `long:"validate" description:"Check every manifest in the library with a strict VDF parse"`
	SetSteamPath string `long:"set-steam-path" description:"Save the steamapps directory to the config file" value-name:"DIR"`
	SetCachePath string `long:"set-cache-path" description:"Save the image cache directory to the config file" value-name:"DIR"`
	ConfigPath   string `short:"c" long:"config" description:"Path to the config file. Defaults to the user's config dir" value-name:"FILE"`
	LogLocation  string `long:"log-location" description:"Path to the logfile. Defaults to the user's cache dir / steamshelf.log" value-name:"FILE"`
	Watch        bool   `short:"w" long:"watch" description:"Rescan when manifests change"`
	Verbose      bool   `short:"v" long:"verbose" description:"Enable verbose logging"`
}

// IsCommand reports whether the options ask for a one-shot CLI operation.
func (o *Options) IsCommand() bool {
	return o.List || o.Search != "" || o.Launch != 0 || o.Details != 0 || o.Validate ||
		o.SetSteamPath != "" || o.SetCachePath != ""
}

// RunCommand performs the CLI operation selected by ops against shelf and
// writes its output to out. Per-manifest scan errors are reported on errOut
// and do not fail the command.
func RunCommand(ctx context.Context, shelf *Shelf, ops *Options, out, errOut io.Writer) error {
	if ops.SetSteamPath != "" || ops.SetCachePath != "" {
		cfg := shelf.Config()
		if ops.SetSteamPath != "" {
			cfg.SteamPath = ops.SetSteamPath
		}
		if ops.SetCachePath != "" {
			cfg.ImageCachePath = ops.SetCachePath
		}

		res, err := shelf.SaveConfig(ctx, cfg)
		if err != nil && !errors.Is(err, ErrSteamPathNotSet) {
			return err
		}
		reportScanErrors(errOut, res)
		fmt.Fprintf(out, "Config saved, %d games found\n", len(res.Games))
		return nil
	}

	res, err := shelf.Rescan(ctx)
	if err != nil {
		return err
	}
	reportScanErrors(errOut, res)

	switch {
	case ops.Validate:
		return validateManifests(shelf, res, out)
	case ops.Launch != 0:
		return shelf.Launch(ctx, ops.Launch)
	case ops.Details != 0:
		return shelf.ShowDetails(ctx, ops.Details)
	case ops.Search != "":
		return printGames(out, Filter(res.Games, ops.Search), ops.JSON)
	default:
		return printGames(out, res.Games, ops.JSON)
	}
}

func reportScanErrors(w io.Writer, res ScanResult) {
	fmt.Fprint(w, res.Report())
}

func printGames(w io.Writer, games []Game, asJSON bool) error {
	if asJSON {
		if games == nil {
			games = []Game{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(games)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "APPID\tNAME\tSIZE")
	for _, g := range games {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", g.AppID, g.DisplayName(), g.SizeLabel())
	}
	return tw.Flush()
}

var errValidationFailed = errors.New("some manifests failed validation")

func validateManifests(shelf *Shelf, res ScanResult, out io.Writer) error {
	failed := len(res.Errors)
	for _, g := range res.Games {
		f, err := shelf.fs.Open(g.Manifest)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", g.Manifest, err)
			continue
		}

		err = ValidateManifest(f)
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("manifest", g.Manifest).Msg("error closing manifest")
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", g.Manifest, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", g.Manifest)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d", errValidationFailed, failed)
	}
	return nil
}

// ExitCode maps an error from RunCommand to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, errValidationFailed) {
		return 2
	}
	return 1
}
