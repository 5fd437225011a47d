package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/hidmond/
//   - Linux:   ~/.local/share/hidmond/
//   - Windows: %APPDATA%\hidmond\
//
// Falls back to ~/.hidmond if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Application Support", "hidmond")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "hidmond")
		}
		return fallbackDir()
	case "linux":
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "hidmond")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "share", "hidmond")
	default:
		return fallbackDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/hidmond/
//   - Linux:   ~/.config/hidmond/
//   - Windows: %APPDATA%\hidmond\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "hidmond")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "hidmond")
	default:
		return PlatformDataDir()
	}
}

func fallbackDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hidmond"
	}
	return filepath.Join(homeDir, ".hidmond")
}
