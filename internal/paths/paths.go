// Package paths resolves the on-disk locations dive uses:
// - the platform storage directory that roots the filesystem provider
// - the metadata database file
// - root-relative file paths used as filesystem object IDs
package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName is the directory name used under platform data directories.
const AppName = "dive"

// ErrOutsideRoot is returned when a path resolves outside its root directory.
var ErrOutsideRoot = errors.New("path escapes root directory")

// Overridable for tests.
var (
	goos        = runtime.GOOS
	userHomeDir = os.UserHomeDir
	getenv      = os.Getenv
)

// StorageDir returns the OS-conventional application data directory:
// - windows: %APPDATA%/dive/storage (falls back to ~/AppData/Roaming)
// - darwin:  ~/Library/Application Support/dive/storage
// - other:   ~/.local/share/dive/storage
func StorageDir() string {
	home, err := userHomeDir()
	if err != nil {
		home = "."
	}

	switch goos {
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, AppName, "storage")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppName, "storage")
	default:
		return filepath.Join(home, ".local", "share", AppName, "storage")
	}
}

// DatabasePath returns the default metadata database location, a sibling of
// the storage directory so the filesystem provider never walks it.
func DatabasePath() string {
	return filepath.Join(filepath.Dir(StorageDir()), "dive.db")
}

// Resolve turns a filesystem object ID into an absolute path.
//
// Relative IDs are joined to root. When confine is set the result must stay
// inside root, otherwise ErrOutsideRoot is returned.
func Resolve(root, id string, confine bool) (string, error) {
	if id == "" {
		return "", errors.New("empty path")
	}
	p := filepath.FromSlash(id)
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)

	if confine && !Within(root, p) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

// Within reports whether p is root itself or a descendant of it.
func Within(root, p string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
