package gui

import "fyne.io/fyne/v2"

var window fyne.Window

func SetRootWindow(w fyne.Window) {
	window = w
}

func GetRootWindow() fyne.Window {
	return window
}

func DestroyRootWindow() {
	if window != nil {
		window.Close()
		window = nil
	}
}
