// Package atomicfile writes files through a temp-file-and-rename so readers
// never observe a partially written file.
package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultPerm os.FileMode = 0o644

// WriteFile writes data to path atomically (best-effort cross-platform).
//
// perm is applied to the new file. If perm is 0 the existing file's mode is
// preserved, falling back to 0644. Missing parent directories are created.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return write(path, perm, false, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFrom streams r into path atomically and returns the number of bytes
// written. It follows the same permission rules as WriteFile.
func WriteFrom(path string, r io.Reader, perm os.FileMode) (int64, error) {
	return writeFrom(path, r, perm, false)
}

// CreateFrom is WriteFrom for a file that must not exist yet. The complete
// temp file is hard-linked into place, so of two concurrent creators exactly
// one wins; the other gets an error matching fs.ErrExist and path is left
// untouched.
func CreateFrom(path string, r io.Reader, perm os.FileMode) (int64, error) {
	return writeFrom(path, r, perm, true)
}

func writeFrom(path string, r io.Reader, perm os.FileMode, exclusive bool) (int64, error) {
	var n int64
	err := write(path, perm, exclusive, func(w io.Writer) error {
		var err error
		n, err = io.Copy(w, r)
		return err
	})
	return n, err
}

func write(path string, perm os.FileMode, exclusive bool, fill func(io.Writer) error) error {
	if perm == 0 {
		perm = defaultPerm
		if st, err := os.Stat(path); err == nil {
			perm = st.Mode().Perm()
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	_ = tmp.Chmod(perm)

	if err := fill(tmp); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if exclusive {
		// The deferred cleanup drops the temp name once the link exists.
		if err := os.Link(tmpPath, path); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("create %s: %w", path, fs.ErrExist)
			}
			return fmt.Errorf("link temp file: %w", err)
		}
		return nil
	}

	// Windows refuses to rename over an existing file.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename temp file: %w", err)
		}
	}

	committed = true
	return nil
}
