package gui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"steamshelf/core"
)

const AppID = "io.github.steamshelf"

// browser is the two pane window: sidebar with search and game list, main
// pane with the selected game or the settings.
type browser struct {
	ctx    context.Context
	shelf  *core.Shelf
	window fyne.Window
	// watch is set by the --watch flag and keeps watching on regardless of
	// the preference.
	watch bool

	mu    sync.Mutex
	games []core.Game
	shown []core.Game
	query string

	search *widget.Entry
	list   *widget.List
	status *widget.Label
	views  *ViewStack
}

func newBrowser(ctx context.Context, shelf *core.Shelf, w fyne.Window) *browser {
	b := &browser{
		ctx:    ctx,
		shelf:  shelf,
		window: w,
		status: widget.NewLabel(""),
	}

	b.search = widget.NewEntry()
	b.search.SetPlaceHolder("Search")
	b.search.OnChanged = b.applyFilter

	b.list = widget.NewList(
		func() int {
			b.mu.Lock()
			defer b.mu.Unlock()
			return len(b.shown)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template Game Name")
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			b.mu.Lock()
			defer b.mu.Unlock()
			if id < len(b.shown) {
				o.(*widget.Label).SetText(b.shown[id].DisplayName())
			}
		},
	)
	b.list.OnSelected = func(id widget.ListItemID) {
		b.mu.Lock()
		if id >= len(b.shown) {
			b.mu.Unlock()
			return
		}
		game := b.shown[id]
		b.mu.Unlock()
		b.selectGame(game)
	}

	b.views = NewViewStack(makePlaceholder())
	return b
}

func (b *browser) content() fyne.CanvasObject {
	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ViewRefreshIcon(), b.rescan),
		widget.NewToolbarAction(theme.WarningIcon(), b.showSkipped),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.SettingsIcon(), b.showSettings),
	)

	sidebar := container.NewBorder(container.NewVBox(toolbar, b.search), b.status, nil, nil, b.list)
	split := container.NewHSplit(sidebar, container.NewPadded(b.views.Container()))
	split.Offset = 0.25
	return split
}

// rescan reads the library again and shows whatever list the library holds
// afterwards. Without a configured library the settings are shown instead.
func (b *browser) rescan() {
	_, err := b.shelf.Rescan(b.ctx)
	b.reload(b.shelf.Current())

	switch {
	case errors.Is(err, core.ErrSteamPathNotSet):
		b.showSettings()
	case err != nil:
		log.Error().Err(err).Msg("library scan failed")
		dialog.ShowError(err, b.window)
	}
}

func (b *browser) reload(res core.ScanResult) {
	b.mu.Lock()
	b.games = res.Games
	b.shown = core.Filter(b.games, b.query)
	b.mu.Unlock()

	status := fmt.Sprintf("%d games", len(res.Games))
	if n := len(res.Errors); n > 0 {
		status += fmt.Sprintf(", %d skipped", n)
	}
	b.status.SetText(status)

	b.list.UnselectAll()
	b.list.Refresh()
}

func (b *browser) showSkipped() {
	report := b.shelf.Current().Report()
	if report == "" {
		report = "Every manifest was read."
	}
	dialog.ShowInformation("Skipped entries", report, b.window)
}

func (b *browser) applyFilter(query string) {
	b.mu.Lock()
	b.query = query
	b.shown = core.Filter(b.games, query)
	b.mu.Unlock()

	b.list.UnselectAll()
	b.list.Refresh()
}

func (b *browser) visible() []core.Game {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.Game, len(b.shown))
	copy(out, b.shown)
	return out
}

func (b *browser) selectGame(game core.Game) {
	b.views.Reset(makeDetailView(b.shelf.Fs(), game, func() { b.play(game) }, func() { b.details(game) }))
}

func (b *browser) play(game core.Game) {
	if err := b.shelf.Launch(b.ctx, game.AppID); err != nil {
		dialog.ShowError(err, b.window)
	}
}

func (b *browser) details(game core.Game) {
	if err := b.shelf.ShowDetails(b.ctx, game.AppID); err != nil {
		dialog.ShowError(err, b.window)
	}
}

func (b *browser) showSettings() {
	if _, ok := b.views.Current().(*settingsView); ok {
		return
	}
	b.views.PushContent(newSettingsView(b.shelf.Config(), b.shelf.Preferences(), b.saveSettings, b.views.PopContent))
}

// saveSettings stays on the settings view when either file cannot be written.
func (b *browser) saveSettings(cfg core.Config, prefs core.Preferences) {
	if err := b.shelf.SavePreferences(prefs); err != nil {
		log.Error().Err(err).Msg("saving preferences failed")
		dialog.ShowError(err, b.window)
		return
	}
	b.syncWatch()

	_, err := b.shelf.SaveConfig(b.ctx, cfg)
	b.reload(b.shelf.Current())
	switch {
	case errors.Is(err, core.ErrSteamPathNotSet):
	case err != nil:
		log.Error().Err(err).Msg("saving settings failed")
		dialog.ShowError(err, b.window)
		if errors.Is(err, core.ErrConfigNotSaved) {
			return
		}
	}
	b.views.PopContent()
}

// syncWatch starts or stops watching the library to match the --watch flag
// and the saved preference.
func (b *browser) syncWatch() {
	if !b.watch && !b.shelf.Preferences().WatchLibrary {
		if err := b.shelf.StopWatching(); err != nil {
			log.Warn().Err(err).Msg("error closing library watcher")
		}
		return
	}

	err := b.shelf.Watch(b.ctx, func(res core.ScanResult, _ error) {
		b.reload(res)
	})
	if err != nil {
		log.Warn().Err(err).Msg("library watch disabled")
	}
}

func makePlaceholder() fyne.CanvasObject {
	return container.NewCenter(widget.NewLabel("Select a game"))
}

func makeDetailView(fsys afero.Fs, game core.Game, onPlay, onDetails func()) fyne.CanvasObject {
	items := []fyne.CanvasObject{}

	if img := loadImage(fsys, game.HeaderPath, fyne.NewSize(460, 215)); img != nil {
		items = append(items, img)
	} else if img := loadImage(fsys, game.IconPath, fyne.NewSize(64, 64)); img != nil {
		items = append(items, img)
	}

	name := widget.NewLabelWithStyle(game.DisplayName(), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	size := widget.NewLabel("Size on disk: " + game.SizeLabel())
	path := widget.NewLabel(game.InstallPath)
	path.Wrapping = fyne.TextWrapBreak

	play := widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), onPlay)
	play.Importance = widget.HighImportance
	store := widget.NewButtonWithIcon("Store page", theme.InfoIcon(), onDetails)

	items = append(items, name, size, path, container.NewHBox(play, store))
	return container.NewVBox(items...)
}

// loadImage reads artwork through fsys; a missing file yields nil.
func loadImage(fsys afero.Fs, path string, minSize fyne.Size) fyne.CanvasObject {
	if path == "" {
		return nil
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil
	}

	img := canvas.NewImageFromResource(fyne.NewStaticResource(filepath.Base(path), data))
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(minSize)
	return img
}

// settingsView holds the two folder pickers, the library preferences and the
// save button.
type settingsView struct {
	widget.BaseWidget

	prefs core.Preferences

	steamPath    *widget.Entry
	cachePath    *widget.Entry
	launchMethod *widget.Select
	scanFolders  *widget.Check
	watch        *widget.Check
	save         *widget.Button
	close        *widget.Button
}

func newSettingsView(cfg core.Config, prefs core.Preferences, onSave func(core.Config, core.Preferences), onClose func()) *settingsView {
	v := &settingsView{
		prefs:        prefs,
		steamPath:    widget.NewEntry(),
		cachePath:    widget.NewEntry(),
		launchMethod: widget.NewSelect([]string{core.LaunchMethodURI, core.LaunchMethodSteam}, nil),
		scanFolders:  widget.NewCheck("Include other Steam library folders", nil),
		watch:        widget.NewCheck("Rescan when manifests change", nil),
	}
	v.steamPath.SetText(cfg.SteamPath)
	v.steamPath.SetPlaceHolder("steamapps directory")
	v.cachePath.SetText(cfg.ImageCachePath)
	v.cachePath.SetPlaceHolder("appcache/librarycache directory")
	v.launchMethod.SetSelected(prefs.LaunchMethod)
	v.scanFolders.SetChecked(prefs.ScanLibraryFolders)
	v.watch.SetChecked(prefs.WatchLibrary)

	v.save = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() {
		onSave(v.Config(), v.Preferences())
	})
	v.save.Importance = widget.HighImportance
	v.close = widget.NewButton("Close", onClose)

	v.ExtendBaseWidget(v)
	return v
}

func (v *settingsView) Config() core.Config {
	return core.Config{
		SteamPath:      strings.TrimSpace(v.steamPath.Text),
		ImageCachePath: strings.TrimSpace(v.cachePath.Text),
	}
}

// Preferences returns the preferences the view was opened with, updated from
// its controls.
func (v *settingsView) Preferences() core.Preferences {
	prefs := v.prefs
	if v.launchMethod.Selected != "" {
		prefs.LaunchMethod = v.launchMethod.Selected
	}
	prefs.ScanLibraryFolders = v.scanFolders.Checked
	prefs.WatchLibrary = v.watch.Checked
	return prefs
}

func (v *settingsView) CreateRenderer() fyne.WidgetRenderer {
	w := GetRootWindow()
	folderRow := func(entry *widget.Entry, title string) fyne.CanvasObject {
		open := widget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
			pickFolder(w, title, entry.SetText)
		})
		return container.NewBorder(nil, nil, nil, open, entry)
	}

	form := widget.NewForm(
		widget.NewFormItem("Steam library", folderRow(v.steamPath, "Select Steam library")),
		widget.NewFormItem("Image cache", folderRow(v.cachePath, "Select image cache")),
		widget.NewFormItem("Launch with", v.launchMethod),
		widget.NewFormItem("", v.scanFolders),
		widget.NewFormItem("", v.watch),
	)

	content := container.NewVBox(
		widget.NewLabelWithStyle("Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		container.NewHBox(v.save, v.close),
	)
	return widget.NewSimpleRenderer(content)
}

func GuiMain(ctx context.Context, shelf *core.Shelf, watch bool) {
	a := app.NewWithID(AppID)
	w := a.NewWindow(core.APP_NAME)
	SetRootWindow(w)

	prefs := shelf.Preferences()
	if prefs.WindowWidth > 0 && prefs.WindowHeight > 0 {
		w.Resize(fyne.NewSize(float32(prefs.WindowWidth), float32(prefs.WindowHeight)))
	}
	w.CenterOnScreen()
	w.SetMaster()

	go func() {
		<-ctx.Done()
		DestroyRootWindow()
	}()

	b := newBrowser(ctx, shelf, w)
	b.watch = watch
	w.SetContent(b.content())
	b.rescan()
	b.syncWatch()
	defer func() {
		if err := shelf.StopWatching(); err != nil {
			log.Warn().Err(err).Msg("error closing library watcher")
		}
	}()

	w.ShowAndRun()
}
