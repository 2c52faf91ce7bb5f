// Package filex manages the CLI's local data directory.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidFileName is returned for names that would escape the target
// directory.
var ErrInvalidFileName = errors.New("invalid file name")

// DefaultDataDir returns the per-user directory used for the local
// database and downloaded files.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(base, "afterlight"), nil
}

// EnsureSubdDir creates base/dirName (owner-only) if needed and returns it.
func EnsureSubdDir(base, dirName string) (string, error) {
	dir := filepath.Join(base, dirName)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SaveNew writes data to dir/name with 0600 permissions. It never
// overwrites an existing file and rejects names containing path elements.
func SaveNew(dir, name string, data []byte) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
