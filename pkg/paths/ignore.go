package paths

import (
	"path/filepath"
	"strings"
)

// IsIgnored reports whether path equals or lies below one of ignorePaths.
func IsIgnored(path string, ignorePaths []string) bool {
	cleaned := filepath.Clean(path)

	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}

		ignorePath = filepath.Clean(ignorePath)
		if cleaned == ignorePath || strings.HasPrefix(cleaned, ignorePath+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
