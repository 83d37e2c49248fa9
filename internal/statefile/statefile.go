// Package statefile holds the small on-disk state fsen-admin keeps between runs:
// the API token cache and the dry-run timestamp. Files are replaced atomically
// and created with owner-only permissions.
package statefile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used below the user cache and state directories.
const AppName = "fsen-admin"

// WriteAtomic writes data to a temporary file next to path and renames it into
// place, so readers never observe a partially written file. Parent directories
// are created with mode 0700.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// CacheDir returns the per-user cache directory for fsen-admin, falling back
// to the temp directory when the OS cache directory cannot be determined.
func CacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName)
}

// StateDir returns the per-user state directory for fsen-admin.
// XDG_STATE_HOME is honoured on Unix; other platforms share the cache directory.
func StateDir() string {
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "state", AppName)
		}
	}
	return CacheDir()
}
