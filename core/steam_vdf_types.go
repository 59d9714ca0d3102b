package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const libraryFoldersFile = "libraryfolders.vdf"

// LibraryFolder is one entry of Steam's libraryfolders.vdf.
type LibraryFolder struct {
	Path string
}

// SteamAppsDir is where the manifests of this library live.
func (l LibraryFolder) SteamAppsDir() string {
	return filepath.Join(l.Path, "steamapps")
}

// ReadLibraryFolders parses <steamAppsDir>/libraryfolders.vdf. Entries are
// returned in the numeric order Steam assigns them.
func ReadLibraryFolders(fsys afero.Fs, steamAppsDir string) ([]LibraryFolder, error) {
	f, err := fsys.Open(filepath.Join(steamAppsDir, libraryFoldersFile))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing libraryfolders.vdf")
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", libraryFoldersFile, err)
	}
	m = normalizeVDFKeys(m)

	lfs, ok := m["libraryfolders"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: libraryfolders block not found", libraryFoldersFile)
	}

	keys := make([]string, 0, len(lfs))
	for k := range lfs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	var folders []LibraryFolder
	for _, k := range keys {
		entry, ok := lfs[k].(map[string]any)
		if !ok {
			// old format: "1" "D:\\Games\\Steam"
			if path, isPath := lfs[k].(string); isPath {
				if _, err := strconv.Atoi(k); err == nil {
					folders = append(folders, LibraryFolder{Path: path})
				}
			}
			continue
		}

		path, ok := entry["path"].(string)
		if !ok {
			log.Debug().Str("library", k).Msg("library folder without path")
			continue
		}

		folders = append(folders, LibraryFolder{Path: path})
	}

	return folders, nil
}

// LibraryRoots returns steamAppsDir followed by every other library's
// steamapps directory listed in its libraryfolders.vdf. A missing or broken
// libraryfolders.vdf only leaves the main root.
func LibraryRoots(fsys afero.Fs, steamAppsDir string) []string {
	roots := []string{steamAppsDir}
	folders, err := ReadLibraryFolders(fsys, steamAppsDir)
	if err != nil {
		log.Debug().Err(err).Str("root", steamAppsDir).Msg("no additional library folders")
		return roots
	}

	seen := map[string]bool{filepath.Clean(steamAppsDir): true}
	for _, folder := range folders {
		dir := filepath.Clean(folder.SteamAppsDir())
		if seen[dir] {
			continue
		}
		seen[dir] = true
		roots = append(roots, dir)
	}
	return roots
}
