package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steamshelf/core"
)

const steamApps = "/steam/steamapps"

type recordingExecutor struct {
	uris []string
	err  error
}

func (e *recordingExecutor) Start(_ context.Context, _ string, args ...string) error {
	if len(args) > 0 {
		e.uris = append(e.uris, args[len(args)-1])
	}
	return e.err
}

func newTestBrowser(t *testing.T, withLibrary bool) (*Browser, *core.Shelf, *recordingExecutor) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeLibrary(t, fsys, withLibrary)
	return newTestBrowserOn(t, fsys)
}

func writeLibrary(t *testing.T, fsys afero.Fs, withLibrary bool) {
	t.Helper()
	for id, name := range map[int]string{400: "Portal", 620: "Portal 2", 70: "Half-Life"} {
		content := fmt.Sprintf("\"appid\" \"%d\"\n\"name\" \"%s\"\n\"installdir\" \"%s\"\n\"SizeOnDisk\" \"2147483648\"\n", id, name, name)
		path := filepath.Join(steamApps, fmt.Sprintf("appmanifest_%d.acf", id))
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}
	if withLibrary {
		require.NoError(t, core.SaveConfig(fsys, "/config/config.txt", core.Config{SteamPath: steamApps}))
	}
}

func newTestBrowserOn(t *testing.T, fsys afero.Fs) (*Browser, *core.Shelf, *recordingExecutor) {
	t.Helper()
	shelf, err := core.MakeShelf(fsys, "/config/config.txt", "/config/preferences.toml")
	require.NoError(t, err)
	exec := &recordingExecutor{}
	shelf.SetLauncher(core.NewLauncherWithExecutor(core.LaunchMethodURI, exec))

	return NewBrowser(context.Background(), shelf, tview.NewApplication()), shelf, exec
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func pressEnter(p tview.Primitive) {
	p.InputHandler()(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), func(tview.Primitive) {})
}

func TestBrowserRescan(t *testing.T) {
	b, _, _ := newTestBrowser(t, true)
	b.Rescan()

	require.Len(t, b.Shown(), 3)
	assert.Equal(t, 3, b.list.GetItemCount())
	main, _ := b.list.GetItemText(0)
	assert.Equal(t, "Half-Life", main)
	assert.Equal(t, "3 games", b.status.GetText(true))
	assert.Contains(t, b.detail.GetText(true), "Half-Life")
	assert.False(t, b.pages.HasPage(PageSettings))
}

func TestBrowserSearch(t *testing.T) {
	b, _, _ := newTestBrowser(t, true)
	b.Rescan()

	b.search.SetText("portal")
	assert.Equal(t, 2, b.list.GetItemCount())
	assert.Contains(t, b.detail.GetText(true), "App ID:  400")

	b.search.SetText("nothing like it")
	assert.Equal(t, 0, b.list.GetItemCount())
	assert.Equal(t, `No games match "nothing like it".`, b.detail.GetText(true))

	b.search.SetText("")
	assert.Equal(t, 3, b.list.GetItemCount())
}

func TestBrowserPlay(t *testing.T) {
	b, _, exec := newTestBrowser(t, true)
	b.Rescan()

	b.list.SetCurrentItem(1)
	assert.Nil(t, b.listKeys(key('p')))
	assert.Equal(t, []string{"steam://rungameid/400"}, exec.uris)
	assert.Contains(t, b.status.GetText(true), "Launched Portal")

	assert.Nil(t, b.listKeys(key('d')))
	assert.Equal(t, []string{"steam://rungameid/400", "steam://nav/games/details/400"}, exec.uris)

	exec.err = errors.New("no opener")
	b.play(0)
	assert.True(t, b.pages.HasPage(PageError))
}

func TestBrowserSkipped(t *testing.T) {
	b, shelf, _ := newTestBrowser(t, true)
	b.Rescan()

	assert.Nil(t, b.listKeys(key('e')))
	require.True(t, b.pages.HasPage(PageSkipped))
	b.closePage(PageSkipped)

	require.NoError(t, afero.WriteFile(shelf.Fs(), filepath.Join(steamApps, "appmanifest_500.acf"), []byte("\"appid\" \"x\"\n"), 0o644))
	b.Rescan()
	assert.Equal(t, "3 games, [yellow]1 skipped[-]", b.status.GetText(false))
	assert.Contains(t, shelf.Current().Report(), "appmanifest_500.acf")
}

func TestBrowserKeys(t *testing.T) {
	b, _, _ := newTestBrowser(t, true)
	b.Rescan()

	ev := key('x')
	assert.Equal(t, ev, b.listKeys(ev))

	down := tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
	assert.Equal(t, down, b.listKeys(down))

	assert.Nil(t, b.listKeys(key('s')))
	assert.True(t, b.pages.HasPage(PageSettings))
}

func TestBrowserSettings(t *testing.T) {
	b, shelf, _ := newTestBrowser(t, false)
	b.Rescan()

	require.True(t, b.pages.HasPage(PageSettings))
	assert.Empty(t, b.Shown())
	assert.Equal(t, "No installed games found.", b.detail.GetText(true))

	form := b.ShowSettings()
	field, ok := form.GetFormItemByLabel("Steam library").(*tview.InputField)
	require.True(t, ok)
	field.SetText(steamApps)

	watch, ok := form.GetFormItemByLabel(watchLabel).(*tview.Checkbox)
	require.True(t, ok)
	assert.False(t, watch.IsChecked())
	folders, ok := form.GetFormItemByLabel(foldersLabel).(*tview.Checkbox)
	require.True(t, ok)
	folders.SetChecked(false)
	method, ok := form.GetFormItemByLabel(launchLabel).(*tview.DropDown)
	require.True(t, ok)
	method.SetCurrentOption(1)

	pressEnter(form.GetButton(form.GetButtonIndex("Save")))

	assert.False(t, b.pages.HasPage(PageSettings))
	assert.Len(t, b.Shown(), 3)
	assert.Equal(t, steamApps, shelf.Config().SteamPath)
	assert.Equal(t, core.LaunchMethodSteam, shelf.Preferences().LaunchMethod)
	assert.False(t, shelf.Preferences().ScanLibraryFolders)
	assert.False(t, shelf.Watching())
}

func TestBrowserFailedSaveKeepsList(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeLibrary(t, mem, true)
	b, shelf, _ := newTestBrowserOn(t, afero.NewReadOnlyFs(mem))
	b.Rescan()
	require.Len(t, b.Shown(), 3)

	form := b.ShowSettings()
	field, ok := form.GetFormItemByLabel("Steam library").(*tview.InputField)
	require.True(t, ok)
	field.SetText("/elsewhere")
	pressEnter(form.GetButton(form.GetButtonIndex("Save")))

	assert.True(t, b.pages.HasPage(PageError))
	assert.True(t, b.pages.HasPage(PageSettings))
	assert.Len(t, b.Shown(), 3)
	assert.Equal(t, 3, b.list.GetItemCount())
	assert.Equal(t, steamApps, shelf.Config().SteamPath)
}

func TestDetailText(t *testing.T) {
	g := core.Game{AppID: 400, Name: "Portal [GOTY]", InstallPath: "/lib/common/Portal", SizeGB: 4, Library: "/lib"}
	text := detailText(g)
	assert.Contains(t, text, "Portal [GOTY[]")
	assert.Contains(t, text, "4.0 GB")
	assert.Contains(t, text, "/lib/common/Portal")
	assert.Contains(t, text, "[::b]Library:[::-] /lib")

	text = detailText(core.Game{AppID: 9})
	assert.Contains(t, text, "Steam Game 9")
	assert.NotContains(t, text, "Library:")
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "0 games", statusText(core.ScanResult{}))
	res := core.ScanResult{
		Games:  []core.Game{{AppID: 1}},
		Errors: []core.EntryError{{Path: "x", Err: errors.New("bad")}},
	}
	assert.Equal(t, "1 games, [yellow]1 skipped[-]", statusText(res))
}
