package util

import (
	"path/filepath"
	"strings"
)

// ToSlash returns path with forward slashes, which is how filenames appear
// in outlines and deep links on every platform. A Windows volume such as
// "C:" gets a leading slash so it reads as an absolute path.
func ToSlash(path string) string {
	p := filepath.ToSlash(path)
	if vol := filepath.VolumeName(path); vol != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
