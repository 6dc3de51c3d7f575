package util

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

func FileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: os.ExpandEnv doesn't work with Windows-style %VARIABLE%.
	return filepath.Clean(os.ExpandEnv(path))
}

// MakeDirectory creates dir and its parents, pointing out a dangling symlink
// when that is the cause of the failure.
func MakeDirectory(dir string) error {
	err := os.MkdirAll(dir, 0700)
	if err == nil {
		return nil
	}

	if e, ok := err.(*os.PathError); ok && os.IsExist(err) {
		if link, lerr := os.Readlink(e.Path); lerr == nil {
			return fmt.Errorf("is symlink %s -> %s mounted?", e.Path, link)
		}
	}

	return fmt.Errorf("failed to create directory '%s': %w", dir, err)
}
