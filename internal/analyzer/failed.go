package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FailedPrefix marks archives whose processing ended in an irrecoverable
// state. The file is renamed, never deleted.
const FailedPrefix = "_failed_"

// MarkFailed renames the archive with the failed prefix and returns the new
// path. Marking an already-marked archive is a no-op.
func MarkFailed(path string) (string, error) {
	dir, name := filepath.Split(path)
	if strings.HasPrefix(name, FailedPrefix) {
		return path, nil
	}
	target := filepath.Join(dir, FailedPrefix+name)
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("mark %q as failed: %w", path, err)
	}
	return target, nil
}

// IsMarkedFailed reports whether the archive carries the failed prefix.
func IsMarkedFailed(path string) bool {
	return strings.HasPrefix(filepath.Base(path), FailedPrefix)
}
