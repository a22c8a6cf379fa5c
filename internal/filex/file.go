// Package filex contains filesystem helpers for locating and preparing the
// vault's data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and any missing parents) with owner-only
// permissions and returns the path. The vault database and its lockfile
// live inside this directory, hence the restrictive mode.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// EnsureParentDir creates the parent directory of path and returns path
// unchanged. Used before opening the vault database file.
func EnsureParentDir(path string) (string, error) {
	if _, err := EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, nil
}
