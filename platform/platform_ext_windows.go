//go:build windows

package platform

import (
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows/registry"
)

// OpenURICommand uses the shell's start builtin, which hands steam:// URIs to
// the registered protocol handler.
func OpenURICommand(uri string, _ bool) (string, []string) {
	return "cmd", []string{"/c", "start", uri}
}

func StripWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}

// SteamAppsCandidates reads the Steam install location from the registry and
// falls back to the default Program Files install.
func SteamAppsCandidates() []string {
	var candidates []string

	if key, err := registry.OpenKey(registry.CURRENT_USER, `SOFTWARE\Valve\Steam`, registry.QUERY_VALUE); err == nil {
		if steamPath, _, err := key.GetStringValue("SteamPath"); err == nil {
			candidates = append(candidates, filepath.Join(filepath.FromSlash(steamPath), "steamapps"))
		}
		if err := key.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing registry key")
		}
	}

	for _, path := range []string{`SOFTWARE\Wow6432Node\Valve\Steam`, `SOFTWARE\Valve\Steam`} {
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		installPath, _, err := key.GetStringValue("InstallPath")
		if closeErr := key.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing registry key")
		}
		if err == nil {
			candidates = append(candidates, filepath.Join(installPath, "steamapps"))
		}
	}

	return append(candidates, `C:\Program Files (x86)\Steam\steamapps`)
}

func DefaultImageCacheDir(steamApps string) string {
	return filepath.Join(filepath.Dir(steamApps), "appcache", "librarycache")
}
