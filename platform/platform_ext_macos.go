//go:build darwin

package platform

import (
	"os"
	"os/exec"
	"path/filepath"
)

func OpenURICommand(uri string, _ bool) (string, []string) {
	return "open", []string{uri}
}

func StripWindow(_ *exec.Cmd) {}

func SteamAppsCandidates() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	return []string{
		filepath.Join(home, "Library", "Application Support", "Steam", "steamapps"),
	}
}

func DefaultImageCacheDir(steamApps string) string {
	return filepath.Join(filepath.Dir(steamApps), "appcache", "librarycache")
}
