package core

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
)

var ErrMissingAppID = errors.New("manifest has no appid")

// ManifestError reports why a single manifest file could not become a Game.
type ManifestError struct {
	Path string
	Key  string
	Line int
	Err  error
}

func (e *ManifestError) Error() string {
	var b strings.Builder
	b.WriteString("manifest")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key %q", e.Key)
	}
	b.WriteString(": " + e.Err.Error())
	return b.String()
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ParseOptions carries the configured directories a manifest is resolved against.
type ParseOptions struct {
	// Root is the library directory holding the manifests and the "common" folder.
	Root string
	// ImageCacheDir holds per-app artwork; empty disables image paths.
	ImageCacheDir string
}

const (
	keyAppID      = "appid"
	keyName       = "name"
	keySizeOnDisk = "sizeondisk"
	keyInstallDir = "installdir"
)

// ParseManifest turns the text of one manifest file into a Game.
//
// Each line is split on whitespace; the first token is the key and the rest,
// rejoined and stripped of quotes, is the value. Keys are matched without
// regard to case and the first occurrence of a key wins. Unknown keys are
// skipped.
func ParseManifest(content string, opts ParseOptions) (*Game, error) {
	game := &Game{}
	seen := make(map[string]bool, 4)

	for i, line := range strings.Split(content, "\n") {
		key, value, ok := splitManifestLine(line)
		if !ok {
			continue
		}

		key = strings.ToLower(key)
		if seen[key] {
			continue
		}

		switch key {
		case keyAppID:
			id, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ManifestError{Key: keyAppID, Line: i + 1, Err: err}
			}
			if id <= 0 {
				return nil, &ManifestError{Key: keyAppID, Line: i + 1, Err: ErrInvalidAppID}
			}
			game.AppID = id
		case keySizeOnDisk:
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, &ManifestError{Key: "SizeOnDisk", Line: i + 1, Err: err}
			}
			game.setSize(size)
		case keyName:
			game.Name = value
		case keyInstallDir:
			game.InstallPath = filepath.Join(opts.Root, "common", value)
		default:
			continue
		}
		seen[key] = true
	}

	if !seen[keyAppID] {
		return nil, &ManifestError{Err: ErrMissingAppID}
	}

	game.Library = opts.Root
	game.IconPath, game.HeaderPath, game.LogoPath = ImagePaths(opts.ImageCacheDir, game.AppID)
	return game, nil
}

func splitManifestLine(line string) (key, value string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}

	key = strings.Trim(fields[0], `"`)
	value = strings.Trim(strings.Join(fields[1:], " "), `"`)
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// ValidateManifest parses r as a VDF document and checks that it has the
// AppState block with an appid and a name that ParseManifest relies on.
func ValidateManifest(r io.Reader) error {
	m, err := vdf.NewParser(r).Parse()
	if err != nil {
		return fmt.Errorf("invalid vdf: %w", err)
	}
	m = normalizeVDFKeys(m)

	appState, ok := m["appstate"].(map[string]any)
	if !ok {
		return errors.New("AppState block not found")
	}

	appID, ok := appState[keyAppID].(string)
	if !ok {
		return ErrMissingAppID
	}
	if _, err := strconv.Atoi(appID); err != nil {
		return fmt.Errorf("appid %q: %w", appID, ErrInvalidAppID)
	}

	if _, ok := appState[keyName].(string); !ok {
		return errors.New("name not found in AppState")
	}

	return nil
}

// normalizeVDFKeys lowercases every key in the tree; VDF keys are
// case-insensitive and Steam writes both "AppState" and "appstate".
func normalizeVDFKeys(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeVDFKeys(nested)
		}
		result[strings.ToLower(k)] = v
	}
	return result
}
