package core

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	ConfigFileName      = "config.txt"
	PreferencesFileName = "preferences.toml"
)

// Config is the two-line config file: the Steam library directory and the
// directory holding cached artwork.
type Config struct {
	SteamPath      string
	ImageCachePath string
}

// DefaultConfigPath resolves config.txt under the user's XDG config dir.
func DefaultConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(APP_NAME, ConfigFileName))
}

func DefaultPreferencesPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(APP_NAME, PreferencesFileName))
}

// ParseConfig reads the install path from the first line and the image cache
// path from the second. Lines may end in CRLF or LF; extra lines are ignored.
func ParseConfig(content string) Config {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var cfg Config
	if len(lines) > 0 {
		cfg.SteamPath = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		cfg.ImageCachePath = strings.TrimSpace(lines[1])
	}
	return cfg
}

func (c Config) String() string {
	return c.SteamPath + "\r\n" + c.ImageCachePath
}

// LoadConfig reads the config at path. A missing file gives the empty
// config; other read errors are returned.
func LoadConfig(fsys afero.Fs, path string) (Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Str("path", path).Msg("no config file, using defaults")
			return Config{}, nil
		}
		return Config{}, err
	}

	return ParseConfig(string(data)), nil
}

func SaveConfig(fsys afero.Fs, path string, cfg Config) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	log.Info().Str("path", path).Str("steam", cfg.SteamPath).Str("images", cfg.ImageCachePath).Msg("saving config")
	return afero.WriteFile(fsys, path, []byte(cfg.String()), os.FileMode(0o644))
}
