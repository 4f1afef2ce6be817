package util

import (
	"os"
	"path/filepath"
)

// FindRepoRoot walks up from start looking for a .git entry and returns the
// directory containing it. When none is found start itself is returned.
// An empty start means the current directory.
func FindRepoRoot(start string) (string, error) {
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = cwd
	}
	start, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}
