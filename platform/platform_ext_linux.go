//go:build linux

package platform

import (
	"os"
	"os/exec"
	"path/filepath"
)

const flatpakSteamID = "com.valvesoftware.Steam"

// OpenURICommand returns the command that opens uri. xdg-open works for
// native and Flatpak Steam; the steam binary is preferred in Game Mode.
func OpenURICommand(uri string, direct bool) (string, []string) {
	if direct {
		return "steam", []string{uri}
	}
	return "xdg-open", []string{uri}
}

func StripWindow(_ *exec.Cmd) {}

// SteamAppsCandidates lists the usual steamapps locations, most common first.
func SteamAppsCandidates() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	return []string{
		filepath.Join(home, ".steam", "steam", "steamapps"),
		filepath.Join(home, ".local", "share", "Steam", "steamapps"),
		filepath.Join(home, ".var", "app", flatpakSteamID, ".steam", "steam", "steamapps"),
		filepath.Join(home, "snap", "steam", "common", ".steam", "steam", "steamapps"),
	}
}

func DefaultImageCacheDir(steamApps string) string {
	return filepath.Join(filepath.Dir(steamApps), "appcache", "librarycache")
}
