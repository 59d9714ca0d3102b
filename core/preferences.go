package core

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	LaunchMethodURI   = "uri"
	LaunchMethodSteam = "steam"
)

type Preferences struct {
	// LaunchMethod picks the OS URI opener ("uri") or the steam binary ("steam", Linux only).
	LaunchMethod       string `toml:"launch_method" validate:"oneof=uri steam"`
	ScanLibraryFolders bool   `toml:"scan_library_folders"`
	WatchLibrary       bool   `toml:"watch_library"`
	DebugLogging       bool   `toml:"debug_logging"`
	WindowWidth        int    `toml:"window_width" validate:"gte=0"`
	WindowHeight       int    `toml:"window_height" validate:"gte=0"`
}

var validate = validator.New()

func DefaultPreferences() *Preferences {
	return &Preferences{
		LaunchMethod:       LaunchMethodURI,
		ScanLibraryFolders: true,
		WindowWidth:        1300,
		WindowHeight:       700,
	}
}

func (p *Preferences) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	return nil
}

func ReadPreferences(fsys afero.Fs, path string) (*Preferences, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	prefs := DefaultPreferences()
	if err := toml.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	return prefs, nil
}

// GetCurrentPreferencesOrDefault never fails: an absent or broken file yields
// the defaults.
func GetCurrentPreferencesOrDefault(fsys afero.Fs, path string) *Preferences {
	prefs, err := ReadPreferences(fsys, path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("using default preferences")
		return DefaultPreferences()
	}
	return prefs
}

func CommitPreferences(fsys afero.Fs, path string, prefs *Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	data, err := toml.Marshal(prefs)
	if err != nil {
		return err
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, 0o644)
}
