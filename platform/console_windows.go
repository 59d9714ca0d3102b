//go:build windows

package platform

import (
	"os"

	"golang.org/x/sys/windows"
)

const attachParentProcess = ^uintptr(0)

// SetupConsole attaches a GUI-subsystem build to the console of the shell
// that started it so CLI output is visible. It is a no-op when there is no
// parent console.
func SetupConsole() {
	kernel32 := windows.NewLazySystemDLL("kernel32.dll")
	attach := kernel32.NewProc("AttachConsole")
	if r0, _, _ := attach.Call(attachParentProcess); r0 == 0 {
		return
	}

	if hout, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE); err == nil {
		os.Stdout = os.NewFile(uintptr(hout), "/dev/stdout")
	}
	if herr, err := windows.GetStdHandle(windows.STD_ERROR_HANDLE); err == nil {
		os.Stderr = os.NewFile(uintptr(herr), "/dev/stderr")
	}
}
