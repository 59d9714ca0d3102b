package gui

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	native "github.com/nixinwang/dialog"
	"github.com/rs/zerolog/log"
)

// nativeDirectoryPicker is swapped out in tests; the native chooser blocks
// until the user answers.
var nativeDirectoryPicker = func(title string) (string, error) {
	return native.Directory().Title(title).Browse()
}

// pickFolder asks for a directory with the OS chooser and falls back to the
// fyne folder dialog when the OS one is not available.
func pickFolder(w fyne.Window, title string, onPicked func(path string)) {
	path, err := nativeDirectoryPicker(title)
	switch {
	case err == nil:
		onPicked(path)
		return
	case errors.Is(err, native.ErrCancelled):
		return
	}

	log.Debug().Err(err).Msg("native folder picker unavailable")
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if uri == nil {
			return
		}
		onPicked(uri.Path())
	}, w)
}
