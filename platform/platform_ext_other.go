//go:build !linux && !darwin && !windows

package platform

import (
	"os/exec"
	"path/filepath"
)

func OpenURICommand(uri string, _ bool) (string, []string) {
	return "xdg-open", []string{uri}
}

func StripWindow(_ *exec.Cmd) {}

func SteamAppsCandidates() []string {
	return nil
}

func DefaultImageCacheDir(steamApps string) string {
	return filepath.Join(filepath.Dir(steamApps), "appcache", "librarycache")
}
