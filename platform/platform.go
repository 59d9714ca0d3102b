// Package platform holds the OS specific pieces: where Steam keeps its
// libraries and how a steam:// URI is handed to the OS.
package platform

import "os"

// DetectSteamAppsDir returns the first existing steamapps directory among
// SteamAppsCandidates, or "" when none exists.
func DetectSteamAppsDir() string {
	return firstDir(SteamAppsCandidates())
}

func firstDir(candidates []string) string {
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}
