package config

import (
	"os"
	"path/filepath"
)

// FindWorkspaceRoot walks up from the working directory looking for a
// .vulnboard directory and returns the directory containing it. When none is
// found the working directory is returned.
func FindWorkspaceRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := cwd
	for {
		if info, err := os.Stat(filepath.Join(dir, ".vulnboard")); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}
