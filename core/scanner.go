package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// EntryError is a failure confined to one directory entry of a scan.
type EntryError struct {
	Path string
	Err  error
}

func (e EntryError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e EntryError) Unwrap() error {
	return e.Err
}

// ScanResult is the outcome of a scan: every record that could be parsed plus
// the entries that could not.
type ScanResult struct {
	Games  []Game
	Errors []EntryError
}

// Report lists the skipped entries one per line, or returns "" when nothing
// was skipped.
func (r ScanResult) Report() string {
	var sb strings.Builder
	for _, e := range r.Errors {
		sb.WriteString("skipped ")
		sb.WriteString(e.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// IsManifestName reports whether a file name looks like appmanifest_<id>.acf.
func IsManifestName(name string) bool {
	return strings.HasPrefix(name, "appmanifest_") && strings.EqualFold(filepath.Ext(name), ".acf")
}

type Scanner struct {
	fs            afero.Fs
	imageCacheDir string
	sizer         func(path string) (int64, error)
	workers       int
}

// NewScanner returns a Scanner reading manifests from fsys. DirSize walks the
// real disk, so the install-size fallback is only enabled when fsys is the OS
// filesystem; SetSizer installs one for any other fs.
func NewScanner(fsys afero.Fs, imageCacheDir string) *Scanner {
	s := &Scanner{
		fs:            fsys,
		imageCacheDir: imageCacheDir,
		workers:       runtime.NumCPU(),
	}
	if _, ok := fsys.(*afero.OsFs); ok {
		s.sizer = DirSize
	}
	return s
}

// SetSizer replaces the install-size fallback; nil disables it.
func (s *Scanner) SetSizer(sizer func(path string) (int64, error)) {
	s.sizer = sizer
}

// ScanDir parses every manifest directly inside root. Sub-directories are not
// entered. A manifest that fails to parse is reported in the result's Errors
// and does not stop its siblings.
func (s *Scanner) ScanDir(ctx context.Context, root string) (ScanResult, error) {
	entries, err := afero.ReadDir(s.fs, root)
	if err != nil {
		return ScanResult{}, fmt.Errorf("read library %s: %w", root, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !IsManifestName(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(root, entry.Name()))
	}

	log.Debug().Str("root", root).Int("manifests", len(paths)).Msg("scanning library")

	games := make([]*Game, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			games[i], errs[i] = s.parseFile(root, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScanResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ScanResult{}, err
	}

	var result ScanResult
	for i, path := range paths {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("manifest", path).Msg("skipping manifest")
			result.Errors = append(result.Errors, EntryError{Path: path, Err: errs[i]})
			continue
		}
		result.Games = append(result.Games, *games[i])
	}

	SortGames(result.Games)
	return result, nil
}

// ScanRoots scans several libraries. A title installed in more than one
// library keeps the record of the first root that has it. Roots that cannot
// be read are recorded as entry errors; only context cancellation aborts.
func (s *Scanner) ScanRoots(ctx context.Context, roots []string) (ScanResult, error) {
	var merged ScanResult
	seen := make(map[int]bool)

	for _, root := range roots {
		res, err := s.ScanDir(ctx, root)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ScanResult{}, ctxErr
			}
			merged.Errors = append(merged.Errors, EntryError{Path: root, Err: err})
			continue
		}

		for _, game := range res.Games {
			if seen[game.AppID] {
				log.Debug().Int("appid", game.AppID).Str("library", root).Msg("duplicate install ignored")
				continue
			}
			seen[game.AppID] = true
			merged.Games = append(merged.Games, game)
		}
		merged.Errors = append(merged.Errors, res.Errors...)
	}

	SortGames(merged.Games)
	return merged, nil
}

func (s *Scanner) parseFile(root, path string) (*Game, error) {
	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}

	game, err := ParseManifest(string(content), ParseOptions{
		Root:          root,
		ImageCacheDir: s.imageCacheDir,
	})
	if err != nil {
		var me *ManifestError
		if errors.As(err, &me) {
			me.Path = path
		}
		return nil, err
	}
	game.Manifest = path

	if game.SizeBytes == 0 && game.InstallPath != "" && s.sizer != nil {
		if ok, _ := afero.DirExists(s.fs, game.InstallPath); ok {
			size, err := s.sizer(game.InstallPath)
			if err != nil {
				log.Debug().Err(err).Str("path", game.InstallPath).Msg("failed to measure install size")
			} else {
				game.setSize(size)
			}
		}
	}

	return game, nil
}

// SortGames orders games by display name, ignoring case, then by AppID.
func SortGames(games []Game) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(games, func(i, j int) bool {
		if cmp := c.CompareString(games[i].DisplayName(), games[j].DisplayName()); cmp != 0 {
			return cmp < 0
		}
		return games[i].AppID < games[j].AppID
	})
}

// Library holds the title list of the most recent scan.
type Library struct {
	mu      sync.RWMutex
	scanner *Scanner
	games   []Game
	errs    []EntryError
}

func NewLibrary(scanner *Scanner) *Library {
	return &Library{scanner: scanner}
}

// SetScanner swaps the scanner used by the next Rescan, e.g. after the image
// cache directory changed.
func (l *Library) SetScanner(scanner *Scanner) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scanner = scanner
}

// Rescan scans roots and replaces the held list with the result. On a
// cancelled scan the previous list is kept. A missing first root still clears
// the list so stale titles are not shown.
func (l *Library) Rescan(ctx context.Context, roots ...string) (ScanResult, error) {
	l.mu.RLock()
	scanner := l.scanner
	l.mu.RUnlock()

	res, err := scanner.ScanRoots(ctx, roots)
	if err != nil {
		return res, err
	}

	l.mu.Lock()
	l.games = res.Games
	l.errs = res.Errors
	l.mu.Unlock()

	log.Info().Int("games", len(res.Games)).Int("errors", len(res.Errors)).Msg("library rescanned")

	if len(roots) > 0 && len(res.Errors) > 0 && res.Errors[0].Path == roots[0] {
		if errors.Is(res.Errors[0].Err, fs.ErrNotExist) {
			return res, res.Errors[0]
		}
	}
	return res, nil
}

// Games returns a copy of the current list.
func (l *Library) Games() []Game {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Game, len(l.games))
	copy(out, l.games)
	return out
}

// Result returns copies of the current list and of the entries the last
// completed scan skipped.
func (l *Library) Result() ScanResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res := ScanResult{
		Games:  make([]Game, len(l.games)),
		Errors: make([]EntryError, len(l.errs)),
	}
	copy(res.Games, l.games)
	copy(res.Errors, l.errs)
	return res
}

func (l *Library) Find(appID int) (Game, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, g := range l.games {
		if g.AppID == appID {
			return g, true
		}
	}
	return Game{}, false
}
