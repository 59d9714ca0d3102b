package core

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
)

const bytesPerGB = 1024 * 1024 * 1024

// Game is one installed title as read from its manifest file.
type Game struct {
	AppID       int     `json:"appid"`
	Name        string  `json:"name"`
	InstallPath string  `json:"install_path"`
	SizeBytes   int64   `json:"size_bytes"`
	SizeGB      float64 `json:"size_gb"`
	IconPath    string  `json:"icon_path,omitempty"`
	HeaderPath  string  `json:"header_path,omitempty"`
	LogoPath    string  `json:"logo_path,omitempty"`
	Manifest    string  `json:"manifest,omitempty"`
	Library     string  `json:"library,omitempty"`
}

// DisplayName falls back to a generic label for manifests without a name.
func (g *Game) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("Steam Game %d", g.AppID)
}

func (g *Game) SizeLabel() string {
	return fmt.Sprintf("%.1f GB", g.SizeGB)
}

// LaunchURI is handed to the OS URI opener to start the title through Steam.
func (g *Game) LaunchURI() string {
	return "steam://rungameid/" + strconv.Itoa(g.AppID)
}

// DetailsURI opens the title's page in the Steam library instead of running it.
func (g *Game) DetailsURI() string {
	return "steam://nav/games/details/" + strconv.Itoa(g.AppID)
}

func (g *Game) setSize(bytes int64) {
	g.SizeBytes = bytes
	g.SizeGB = BytesToGB(bytes)
}

// BytesToGB converts a byte count to gigabytes rounded to one decimal place.
func BytesToGB(bytes int64) float64 {
	return math.Round(float64(bytes)/bytesPerGB*10) / 10
}

// ImagePaths returns the icon, header and logo artwork paths for appID inside
// the image cache directory. An empty cache directory yields empty paths.
func ImagePaths(cacheDir string, appID int) (icon, header, logo string) {
	if cacheDir == "" {
		return "", "", ""
	}

	icon = filepath.Join(cacheDir, fmt.Sprintf("%d_icon.jpg", appID))
	header = filepath.Join(cacheDir, fmt.Sprintf("%d_header.jpg", appID))
	logo = filepath.Join(cacheDir, fmt.Sprintf("%d_logo.png", appID))
	return icon, header, logo
}
