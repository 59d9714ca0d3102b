package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	testConfigPath = "/config/config.txt"
	testPrefsPath  = "/config/preferences.toml"
	testSteamApps  = "/steam/steamapps"
)

func newTestShelf(t *testing.T, fsys afero.Fs) (*Shelf, *fakeExecutor) {
	t.Helper()
	shelf, err := MakeShelf(fsys, testConfigPath, testPrefsPath)
	require.NoError(t, err)

	exec := &fakeExecutor{}
	shelf.SetLauncher(NewLauncherWithExecutor(LaunchMethodURI, exec))
	return shelf, exec
}

func TestShelf(t *testing.T) {
	ctx := context.Background()

	t.Run("no config", func(t *testing.T) {
		shelf, _ := newTestShelf(t, afero.NewMemMapFs())
		assert.Equal(t, Config{}, shelf.Config())
		assert.Nil(t, shelf.Roots())

		res, err := shelf.Rescan(ctx)
		assert.ErrorIs(t, err, ErrSteamPathNotSet)
		assert.Empty(t, res.Games)

		require.NoError(t, shelf.Watch(ctx, nil))
		assert.True(t, shelf.Watching())
		require.NoError(t, shelf.StopWatching())
		assert.False(t, shelf.Watching())
		assert.NoError(t, shelf.StopWatching())
	})

	t.Run("save config rescans", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		writeManifest(t, fsys, testSteamApps, 400, manifestText(400, "Portal", 1))

		shelf, _ := newTestShelf(t, fsys)
		res, err := shelf.SaveConfig(ctx, Config{SteamPath: testSteamApps, ImageCachePath: "/cache"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Portal"}, names(res.Games))
		assert.Equal(t, filepath.Join("/cache", "400_icon.jpg"), res.Games[0].IconPath)

		reloaded, _ := newTestShelf(t, fsys)
		assert.Equal(t, Config{SteamPath: testSteamApps, ImageCachePath: "/cache"}, reloaded.Config())
	})

	t.Run("use config is not persisted", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		shelf, _ := newTestShelf(t, fsys)
		shelf.UseConfig(Config{SteamPath: testSteamApps})
		assert.Equal(t, []string{testSteamApps}, shelf.Roots())

		exists, err := afero.Exists(fsys, testConfigPath)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("library folders", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		extra := filepath.Join("/mnt/games", "steamapps")
		vdf := "\"libraryfolders\"\n{\n\"0\"\n{\n\"path\" \"/steam\"\n}\n\"1\"\n{\n\"path\" \"/mnt/games\"\n}\n}\n"
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(testSteamApps, libraryFoldersFile), []byte(vdf), 0o644))
		writeManifest(t, fsys, testSteamApps, 400, manifestText(400, "Portal", 1))
		writeManifest(t, fsys, extra, 620, manifestText(620, "Portal 2", 1))

		shelf, _ := newTestShelf(t, fsys)
		shelf.UseConfig(Config{SteamPath: testSteamApps})
		assert.Equal(t, []string{testSteamApps, extra}, shelf.Roots())

		res, err := shelf.Rescan(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Portal", "Portal 2"}, names(res.Games))

		prefs := shelf.Preferences()
		prefs.ScanLibraryFolders = false
		require.NoError(t, shelf.SavePreferences(prefs))
		assert.Equal(t, []string{testSteamApps}, shelf.Roots())
		assert.False(t, GetCurrentPreferencesOrDefault(fsys, testPrefsPath).ScanLibraryFolders)
	})

	t.Run("launch", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		writeManifest(t, fsys, testSteamApps, 400, manifestText(400, "Portal", 1))

		shelf, exec := newTestShelf(t, fsys)
		shelf.UseConfig(Config{SteamPath: testSteamApps})
		_, err := shelf.Rescan(ctx)
		require.NoError(t, err)

		require.NoError(t, shelf.Launch(ctx, 400))
		assert.Len(t, exec.Calls(), 1)

		assert.ErrorIs(t, shelf.Launch(ctx, 401), ErrGameNotFound)
		assert.ErrorIs(t, shelf.ShowDetails(ctx, 401), ErrGameNotFound)
		assert.Len(t, exec.Calls(), 1)

		require.NoError(t, shelf.ShowDetails(ctx, 400))
		require.Len(t, exec.Calls(), 2)
		assert.Equal(t, "steam://nav/games/details/400", exec.Calls()[1].args[len(exec.Calls()[1].args)-1])
	})

	t.Run("saved launch method keeps the executor", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		writeManifest(t, fsys, testSteamApps, 400, manifestText(400, "Portal", 1))

		shelf, exec := newTestShelf(t, fsys)
		shelf.UseConfig(Config{SteamPath: testSteamApps})
		_, err := shelf.Rescan(ctx)
		require.NoError(t, err)

		prefs := shelf.Preferences()
		prefs.LaunchMethod = LaunchMethodSteam
		require.NoError(t, shelf.SavePreferences(prefs))
		require.NoError(t, shelf.Launch(ctx, 400))
		assert.Len(t, exec.Calls(), 1)
	})

	t.Run("failed save keeps the list", func(t *testing.T) {
		mem := afero.NewMemMapFs()
		writeManifest(t, mem, testSteamApps, 400, manifestText(400, "Portal", 1))
		require.NoError(t, SaveConfig(mem, testConfigPath, Config{SteamPath: testSteamApps}))

		shelf, _ := newTestShelf(t, afero.NewReadOnlyFs(mem))
		_, err := shelf.Rescan(ctx)
		require.NoError(t, err)

		res, err := shelf.SaveConfig(ctx, Config{SteamPath: "/elsewhere"})
		assert.ErrorIs(t, err, ErrConfigNotSaved)
		assert.Equal(t, []string{"Portal"}, names(res.Games))
		assert.Equal(t, []string{"Portal"}, names(shelf.Current().Games))
		assert.Equal(t, testSteamApps, shelf.Config().SteamPath)

		assert.Error(t, shelf.SavePreferences(shelf.Preferences()))
	})

	t.Run("broken preferences fall back", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, testPrefsPath, []byte("not toml ="), 0o644))

		shelf, _ := newTestShelf(t, fsys)
		assert.Equal(t, *DefaultPreferences(), shelf.Preferences())
	})
}

func TestShelfWatchFollowsSavedConfig(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	dir := t.TempDir()
	first := filepath.Join(dir, "first", "steamapps")
	second := filepath.Join(dir, "second", "steamapps")
	require.NoError(t, os.MkdirAll(first, 0o755))
	require.NoError(t, os.MkdirAll(second, 0o755))

	shelf, err := MakeShelf(afero.NewOsFs(), filepath.Join(dir, "config.txt"), filepath.Join(dir, "preferences.toml"))
	require.NoError(t, err)
	shelf.UseConfig(Config{SteamPath: first})

	changed := make(chan ScanResult, 1)
	require.NoError(t, shelf.Watch(ctx, func(res ScanResult, _ error) {
		select {
		case changed <- res:
		default:
		}
	}))
	defer func() { require.NoError(t, shelf.StopWatching()) }()
	assert.Equal(t, []string{first}, shelf.watcher.watched())

	_, err = shelf.SaveConfig(ctx, Config{SteamPath: second})
	require.NoError(t, err)
	assert.Equal(t, []string{second}, shelf.watcher.watched())

	require.NoError(t, os.WriteFile(filepath.Join(second, "appmanifest_400.acf"), []byte(manifestText(400, "Portal", 1)), 0o644))

	select {
	case res := <-changed:
		assert.Equal(t, []string{"Portal"}, names(res.Games))
	case <-time.After(5 * time.Second):
		t.Fatal("no rescan after a change in the saved library")
	}
}

func TestShelfWatchStartsWithoutLibrary(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	root := filepath.Join(dir, "steamapps")
	require.NoError(t, os.MkdirAll(root, 0o755))

	shelf, err := MakeShelf(afero.NewOsFs(), filepath.Join(dir, "config.txt"), filepath.Join(dir, "preferences.toml"))
	require.NoError(t, err)

	require.NoError(t, shelf.Watch(context.Background(), nil))
	defer func() { require.NoError(t, shelf.StopWatching()) }()
	assert.Empty(t, shelf.watcher.watched())

	_, err = shelf.SaveConfig(context.Background(), Config{SteamPath: root})
	require.NoError(t, err)
	assert.Equal(t, []string{root}, shelf.watcher.watched())

	prefs := shelf.Preferences()
	prefs.ScanLibraryFolders = false
	require.NoError(t, shelf.SavePreferences(prefs))
	assert.Equal(t, []string{root}, shelf.watcher.watched())
}
