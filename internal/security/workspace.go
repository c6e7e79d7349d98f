package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateDataDir checks that a data directory is safe to use and creates
// it if missing.
func ValidateDataDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("data directory is empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid data dir path: %w", err)
	}

	// Refuse root or the home directory itself.
	home, _ := os.UserHomeDir()
	if abs == "/" || abs == home {
		return fmt.Errorf("cannot use root or home directory as data dir")
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(abs, 0755)
		}
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("data dir path is not a directory")
	}

	return nil
}

// IsPathWithin checks if a path stays inside a base directory.
func IsPathWithin(path, base string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
