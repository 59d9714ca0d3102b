// Package tui is the terminal front end: the same game list, search and
// settings as the desktop window, drawn with tview.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"steamshelf/core"
)

const (
	PageMain     = "main"
	PageSettings = "settings"
	PageSkipped  = "skipped"
	PageError    = "error"

	helpLine = "[::b]Enter/p[::-] play  [::b]d[::-] store page  [::b]/[::-] search  [::b]r[::-] rescan  [::b]e[::-] skipped  [::b]s[::-] settings  [::b]q[::-] quit"

	launchLabel  = "Launch with"
	foldersLabel = "Other library folders"
	watchLabel   = "Rescan on changes"
)

// Browser holds the widgets and the current list. It is built without an
// application screen so it can be driven from tests.
type Browser struct {
	ctx   context.Context
	shelf *core.Shelf
	app   *tview.Application
	// watch is set by the --watch flag and keeps watching on regardless of
	// the preference.
	watch bool

	mu    sync.Mutex
	games []core.Game
	shown []core.Game

	pages  *tview.Pages
	search *tview.InputField
	list   *tview.List
	detail *tview.TextView
	status *tview.TextView
}

func NewBrowser(ctx context.Context, shelf *core.Shelf, app *tview.Application) *Browser {
	b := &Browser{
		ctx:    ctx,
		shelf:  shelf,
		app:    app,
		pages:  tview.NewPages(),
		search: tview.NewInputField(),
		list:   tview.NewList(),
		detail: tview.NewTextView(),
		status: tview.NewTextView(),
	}

	b.search.SetLabel("Search: ").
		SetChangedFunc(func(text string) {
			b.applyFilter(text)
		}).
		SetDoneFunc(func(tcell.Key) {
			b.app.SetFocus(b.list)
		})

	b.list.ShowSecondaryText(false).
		SetHighlightFullLine(true).
		SetChangedFunc(func(index int, _, _ string, _ rune) {
			b.showDetail(index)
		}).
		SetSelectedFunc(func(index int, _, _ string, _ rune) {
			b.play(index)
		})
	b.list.SetBorder(true).SetTitle("Games")
	b.list.SetInputCapture(b.listKeys)

	b.detail.SetDynamicColors(true).SetWordWrap(true)
	b.detail.SetBorder(true).SetTitle("Details")

	b.status.SetDynamicColors(true)

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.search, 1, 0, false).
		AddItem(b.list, 0, 1, true)

	body := tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(b.detail, 0, 2, false)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(b.status, 1, 0, false).
		AddItem(tview.NewTextView().SetDynamicColors(true).SetText(helpLine), 1, 0, false)
	main.SetTitle(core.APP_NAME).SetBorder(true).SetTitleAlign(tview.AlignCenter)

	b.pages.AddPage(PageMain, main, true, true)
	return b
}

// Root is the primitive to hand to the application.
func (b *Browser) Root() tview.Primitive {
	return b.pages
}

func (b *Browser) listKeys(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 'p':
		b.play(b.list.GetCurrentItem())
	case 'd':
		b.details(b.list.GetCurrentItem())
	case 'e':
		b.showSkipped()
	case '/':
		b.app.SetFocus(b.search)
	case 'r':
		b.Rescan()
	case 's':
		b.ShowSettings()
	case 'q':
		b.app.Stop()
	default:
		return event
	}
	return nil
}

// Rescan scans again and shows whatever list the library holds afterwards.
// Without a configured library the settings form opens instead.
func (b *Browser) Rescan() {
	_, err := b.shelf.Rescan(b.ctx)
	b.Reload(b.shelf.Current())

	switch {
	case errors.Is(err, core.ErrSteamPathNotSet):
		b.ShowSettings()
	case err != nil:
		log.Error().Err(err).Msg("library scan failed")
		b.showError(err)
	}
}

// Reload swaps in a scan result keeping the current search.
func (b *Browser) Reload(res core.ScanResult) {
	b.mu.Lock()
	b.games = res.Games
	b.mu.Unlock()

	b.status.SetText(statusText(res))
	b.applyFilter(b.search.GetText())
}

func (b *Browser) applyFilter(query string) {
	b.mu.Lock()
	b.shown = core.Filter(b.games, query)
	shown := b.shown
	b.mu.Unlock()

	b.list.Clear()
	for _, g := range shown {
		b.list.AddItem(g.DisplayName(), "", 0, nil)
	}
	if len(shown) == 0 {
		b.detail.SetText(emptyText(query))
		return
	}
	b.list.SetCurrentItem(0)
	b.showDetail(0)
}

// Shown returns a copy of the games currently listed.
func (b *Browser) Shown() []core.Game {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.Game, len(b.shown))
	copy(out, b.shown)
	return out
}

func (b *Browser) gameAt(index int) (core.Game, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.shown) {
		return core.Game{}, false
	}
	return b.shown[index], true
}

func (b *Browser) showDetail(index int) {
	game, ok := b.gameAt(index)
	if !ok {
		return
	}
	b.detail.SetText(detailText(game))
	b.detail.ScrollToBeginning()
}

func (b *Browser) play(index int) {
	game, ok := b.gameAt(index)
	if !ok {
		return
	}
	if err := b.shelf.Launch(b.ctx, game.AppID); err != nil {
		b.showError(err)
		return
	}
	b.status.SetText(fmt.Sprintf("Launched %s", tview.Escape(game.DisplayName())))
}

func (b *Browser) details(index int) {
	game, ok := b.gameAt(index)
	if !ok {
		return
	}
	if err := b.shelf.ShowDetails(b.ctx, game.AppID); err != nil {
		b.showError(err)
	}
}

func (b *Browser) showSkipped() {
	report := b.shelf.Current().Report()
	if report == "" {
		report = "Every manifest was read."
	}

	text := tview.NewTextView().SetText(report).SetWordWrap(true)
	text.SetBorder(true).SetTitle("Skipped entries (Esc to close)")
	text.SetDoneFunc(func(tcell.Key) {
		b.closePage(PageSkipped)
	})
	b.pages.AddPage(PageSkipped, centered(text, 100, 20), true, true)
	b.app.SetFocus(text)
}

// ShowSettings opens the settings form over the list and returns it.
func (b *Browser) ShowSettings() *tview.Form {
	cfg := b.shelf.Config()
	prefs := b.shelf.Preferences()

	methods := []string{core.LaunchMethodURI, core.LaunchMethodSteam}
	current := 0
	if prefs.LaunchMethod == core.LaunchMethodSteam {
		current = 1
	}

	form := tview.NewForm().
		AddInputField("Steam library", cfg.SteamPath, 60, nil, nil).
		AddInputField("Image cache", cfg.ImageCachePath, 60, nil, nil).
		AddDropDown(launchLabel, methods, current, nil).
		AddCheckbox(foldersLabel, prefs.ScanLibraryFolders, nil).
		AddCheckbox(watchLabel, prefs.WatchLibrary, nil)

	form.AddButton("Save", func() {
		b.saveSettings(form, prefs)
	})
	form.AddButton("Cancel", func() {
		b.closePage(PageSettings)
	})
	form.SetCancelFunc(func() {
		b.closePage(PageSettings)
	})
	form.SetBorder(true).SetTitle("Settings").SetTitleAlign(tview.AlignLeft)

	b.pages.AddPage(PageSettings, centered(form, 80, 15), true, true)
	b.app.SetFocus(form)
	return form
}

// saveSettings keeps the form open when either file cannot be written.
func (b *Browser) saveSettings(form *tview.Form, prefs core.Preferences) {
	if dd, ok := form.GetFormItemByLabel(launchLabel).(*tview.DropDown); ok {
		if _, method := dd.GetCurrentOption(); method != "" {
			prefs.LaunchMethod = method
		}
	}
	prefs.ScanLibraryFolders = formChecked(form, foldersLabel)
	prefs.WatchLibrary = formChecked(form, watchLabel)

	if err := b.shelf.SavePreferences(prefs); err != nil {
		log.Error().Err(err).Msg("saving preferences failed")
		b.showError(err)
		return
	}
	b.syncWatch()

	cfg := core.Config{
		SteamPath:      formText(form, "Steam library"),
		ImageCachePath: formText(form, "Image cache"),
	}
	_, err := b.shelf.SaveConfig(b.ctx, cfg)
	b.Reload(b.shelf.Current())
	if !errors.Is(err, core.ErrConfigNotSaved) {
		b.closePage(PageSettings)
	}
	if err != nil && !errors.Is(err, core.ErrSteamPathNotSet) {
		log.Error().Err(err).Msg("saving settings failed")
		b.showError(err)
	}
}

// syncWatch starts or stops watching the library to match the --watch flag
// and the saved preference.
func (b *Browser) syncWatch() {
	if !b.watch && !b.shelf.Preferences().WatchLibrary {
		if err := b.shelf.StopWatching(); err != nil {
			log.Warn().Err(err).Msg("error closing library watcher")
		}
		return
	}

	err := b.shelf.Watch(b.ctx, func(res core.ScanResult, _ error) {
		b.app.QueueUpdateDraw(func() {
			b.Reload(res)
		})
	})
	if err != nil {
		log.Warn().Err(err).Msg("library watch disabled")
	}
}

func (b *Browser) showError(err error) {
	modal := tview.NewModal().
		SetText(err.Error()).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			b.closePage(PageError)
		})
	b.pages.AddPage(PageError, modal, true, true)
	b.app.SetFocus(modal)
}

func (b *Browser) closePage(name string) {
	b.pages.RemovePage(name)
	b.app.SetFocus(b.list)
}

func formText(form *tview.Form, label string) string {
	item := form.GetFormItemByLabel(label)
	if field, ok := item.(*tview.InputField); ok {
		return strings.TrimSpace(field.GetText())
	}
	return ""
}

func formChecked(form *tview.Form, label string) bool {
	if box, ok := form.GetFormItemByLabel(label).(*tview.Checkbox); ok {
		return box.IsChecked()
	}
	return false
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func statusText(res core.ScanResult) string {
	text := fmt.Sprintf("%d games", len(res.Games))
	if n := len(res.Errors); n > 0 {
		text += fmt.Sprintf(", [yellow]%d skipped[-]", n)
	}
	return text
}

func emptyText(query string) string {
	if query == "" {
		return "No installed games found."
	}
	return fmt.Sprintf("No games match %q.", query)
}

func detailText(g core.Game) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[::b]%s[::-]\n\n", tview.Escape(g.DisplayName()))
	fmt.Fprintf(&sb, "[::b]App ID:[::-]  %d\n", g.AppID)
	fmt.Fprintf(&sb, "[::b]Size:[::-]    %s\n", g.SizeLabel())
	fmt.Fprintf(&sb, "[::b]Path:[::-]    %s\n", tview.Escape(g.InstallPath))
	if g.Library != "" {
		fmt.Fprintf(&sb, "[::b]Library:[::-] %s\n", tview.Escape(g.Library))
	}
	return sb.String()
}

// Run draws the browser on the terminal until the user quits or ctx ends.
func Run(ctx context.Context, shelf *core.Shelf, watch bool) error {
	app := tview.NewApplication()
	b := NewBrowser(ctx, shelf, app)
	b.watch = watch
	app.SetRoot(b.Root(), true).SetFocus(b.list)

	b.Rescan()
	b.syncWatch()
	defer func() {
		if err := shelf.StopWatching(); err != nil {
			log.Warn().Err(err).Msg("error closing library watcher")
		}
	}()

	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	return app.Run()
}
