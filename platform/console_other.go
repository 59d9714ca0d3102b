//go:build !windows

package platform

func SetupConsole() {}
