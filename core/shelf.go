package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrSteamPathNotSet = errors.New("steam library path is not set")
	ErrGameNotFound    = errors.New("game not found")
	ErrConfigNotSaved  = errors.New("config not saved")
)

// Shelf ties the persisted config and preferences to the in-memory library
// and the launcher. The GUI, TUI and CLI all drive the app through it.
type Shelf struct {
	fs        afero.Fs
	cfgPath   string
	prefsPath string

	mu       sync.RWMutex
	cfg      Config
	prefs    *Preferences
	library  *Library
	launcher *Launcher

	watchMu  sync.Mutex
	watcher  *Watcher
	watchCtx context.Context
	onRescan func(ScanResult, error)
}

// MakeShelf loads config and preferences from fsys. Missing files fall back
// to defaults; only unreadable files fail.
func MakeShelf(fsys afero.Fs, cfgPath, prefsPath string) (*Shelf, error) {
	cfg, err := LoadConfig(fsys, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	prefs := GetCurrentPreferencesOrDefault(fsys, prefsPath)

	return &Shelf{
		fs:        fsys,
		cfgPath:   cfgPath,
		prefsPath: prefsPath,
		cfg:       cfg,
		prefs:     prefs,
		library:   NewLibrary(NewScanner(fsys, cfg.ImageCachePath)),
		launcher:  NewLauncher(prefs.LaunchMethod),
	}, nil
}

func (s *Shelf) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Shelf) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.prefs
}

func (s *Shelf) Library() *Library {
	return s.library
}

// Fs is the filesystem config, manifests and artwork are read from.
func (s *Shelf) Fs() afero.Fs {
	return s.fs
}

func (s *Shelf) SetLauncher(l *Launcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launcher = l
}

// UseConfig changes the in-memory config without saving it, e.g. to apply a
// detected Steam path or command line overrides.
func (s *Shelf) UseConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.ImageCachePath != s.cfg.ImageCachePath {
		s.library.SetScanner(NewScanner(s.fs, cfg.ImageCachePath))
	}
	s.cfg = cfg
}

// SaveConfig persists cfg and rescans the library with it. When the write
// fails nothing changes and the library keeps its list.
func (s *Shelf) SaveConfig(ctx context.Context, cfg Config) (ScanResult, error) {
	if err := SaveConfig(s.fs, s.cfgPath, cfg); err != nil {
		return s.library.Result(), fmt.Errorf("%w: %w", ErrConfigNotSaved, err)
	}
	s.UseConfig(cfg)
	s.rewatch()
	return s.Rescan(ctx)
}

// SavePreferences persists prefs and applies the launch method and library
// folder settings. Starting or stopping a watch is left to the caller.
func (s *Shelf) SavePreferences(prefs Preferences) error {
	if err := CommitPreferences(s.fs, s.prefsPath, &prefs); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	s.mu.Lock()
	s.prefs = &prefs
	s.launcher = s.launcher.WithMethod(prefs.LaunchMethod)
	s.mu.Unlock()

	s.rewatch()
	return nil
}

// Roots lists the directories a rescan reads: the configured library and,
// if enabled, the other libraries Steam knows about.
func (s *Shelf) Roots() []string {
	s.mu.RLock()
	cfg, prefs := s.cfg, *s.prefs
	s.mu.RUnlock()

	if cfg.SteamPath == "" {
		return nil
	}
	if !prefs.ScanLibraryFolders {
		return []string{cfg.SteamPath}
	}
	return LibraryRoots(s.fs, cfg.SteamPath)
}

// Rescan replaces the library's list with a fresh scan of Roots.
func (s *Shelf) Rescan(ctx context.Context) (ScanResult, error) {
	roots := s.Roots()
	if len(roots) == 0 {
		res, _ := s.library.Rescan(ctx)
		return res, ErrSteamPathNotSet
	}
	return s.library.Rescan(ctx, roots...)
}

func (s *Shelf) Games() []Game {
	return s.library.Games()
}

// Current is the list the library holds now with the entries its last
// completed scan skipped. Front ends redraw from it after a rescan or save,
// whether or not that failed.
func (s *Shelf) Current() ScanResult {
	return s.library.Result()
}

// Launch starts the game with the given AppID from the current list.
func (s *Shelf) Launch(ctx context.Context, appID int) error {
	game, launcher, err := s.lookup(appID)
	if err != nil {
		return err
	}
	return launcher.Launch(ctx, game)
}

// ShowDetails opens the Steam client's page for the game with the given AppID.
func (s *Shelf) ShowDetails(ctx context.Context, appID int) error {
	game, launcher, err := s.lookup(appID)
	if err != nil {
		return err
	}
	return launcher.ShowDetails(ctx, game)
}

func (s *Shelf) lookup(appID int) (Game, *Launcher, error) {
	game, ok := s.library.Find(appID)
	if !ok {
		return Game{}, nil, fmt.Errorf("%w: %d", ErrGameNotFound, appID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return game, s.launcher, nil
}

// Watch rescans whenever manifests change under Roots and passes the
// library's list to onRescan. The watched directories follow later
// SaveConfig and SavePreferences calls, so watching may start before a
// library is configured. Calling Watch again while watching only replaces
// onRescan. StopWatching ends it.
func (s *Shelf) Watch(ctx context.Context, onRescan func(ScanResult, error)) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	s.watchCtx = ctx
	s.onRescan = onRescan
	if s.watcher != nil {
		return nil
	}

	w, err := NewWatcher(s.Roots(), s.rescanAfterChange)
	if err != nil {
		return fmt.Errorf("watch library: %w", err)
	}
	s.watcher = w
	return nil
}

func (s *Shelf) Watching() bool {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	return s.watcher != nil
}

func (s *Shelf) StopWatching() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	s.onRescan = nil
	return err
}

func (s *Shelf) rewatch() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watcher != nil {
		s.watcher.SetRoots(s.Roots())
	}
}

func (s *Shelf) rescanAfterChange() {
	s.watchMu.Lock()
	ctx, onRescan := s.watchCtx, s.onRescan
	s.watchMu.Unlock()

	if ctx == nil {
		return
	}

	_, err := s.Rescan(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("rescan after library change failed")
	}
	if onRescan != nil {
		onRescan(s.library.Result(), err)
	}
}
