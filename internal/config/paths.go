package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// HomeDir returns the directory repoviewer keeps its cache in.
// Priority: $REPOVIEWER_HOME -> $XDG_CACHE_HOME/repoviewer -> ~/.cache/repoviewer (Unix) / %LOCALAPPDATA%\repoviewer (Windows)
func HomeDir() (string, error) {
	if home := os.Getenv("REPOVIEWER_HOME"); home != "" {
		return home, nil
	}

	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "repoviewer"), nil
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(userHome, "AppData", "Local", "repoviewer"), nil
	default:
		return filepath.Join(userHome, ".cache", "repoviewer"), nil
	}
}
