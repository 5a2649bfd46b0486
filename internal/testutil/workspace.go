// Package testutil provides reusable test utilities for dive integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/divehq/dive/internal/workspace"
)

// TestWorkspace represents a temporary workspace for testing: a storage
// directory plus an in-memory metadata store.
type TestWorkspace struct {
	Path string
	WS   *workspace.Workspace

	t      *testing.T
	ignore []string
	files  map[string]string
}

// NewTestWorkspace creates a new test workspace builder.
// Call Build() to create the storage directory and open the workspace.
func NewTestWorkspace(t *testing.T) *TestWorkspace {
	t.Helper()
	return &TestWorkspace{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file to the storage directory.
// The path is relative to the storage root.
func (w *TestWorkspace) WithFile(path, content string) *TestWorkspace {
	w.files[path] = content
	return w
}

// WithIgnore adds doublestar ignore patterns for the filesystem provider.
func (w *TestWorkspace) WithIgnore(patterns ...string) *TestWorkspace {
	w.ignore = append(w.ignore, patterns...)
	return w
}

// Build creates the storage directory, writes the configured files and opens
// the workspace. The workspace is closed when the test ends.
func (w *TestWorkspace) Build() *TestWorkspace {
	w.t.Helper()

	root, err := filepath.EvalSymlinks(w.t.TempDir())
	if err != nil {
		w.t.Fatalf("failed to resolve temp dir: %v", err)
	}
	w.Path = root

	for path, content := range w.files {
		w.writeFile(path, content)
	}

	ws, err := workspace.Open(workspace.Options{
		StorageDir: root,
		InMemory:   true,
		Ignore:     w.ignore,
		Confine:    true,
	})
	if err != nil {
		w.t.Fatalf("failed to open workspace: %v", err)
	}
	w.t.Cleanup(func() { ws.Close() })
	w.WS = ws
	return w
}

// Abs returns the absolute path of a storage-relative path.
func (w *TestWorkspace) Abs(relPath string) string {
	return filepath.Join(w.Path, filepath.FromSlash(relPath))
}

// FileID returns the filesystem composite ID of a storage-relative path.
func (w *TestWorkspace) FileID(relPath string) string {
	return "filesystem:" + filepath.ToSlash(w.Abs(relPath))
}

func (w *TestWorkspace) writeFile(relPath, content string) {
	w.t.Helper()
	fullPath := w.Abs(relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		w.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// WriteFile writes a file after Build, outside of dive.
func (w *TestWorkspace) WriteFile(relPath, content string) {
	w.t.Helper()
	w.writeFile(relPath, content)
}

// ReadFile reads a file from the storage directory.
func (w *TestWorkspace) ReadFile(relPath string) string {
	w.t.Helper()
	content, err := os.ReadFile(w.Abs(relPath))
	if err != nil {
		w.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// Context returns a background context for test calls.
func (w *TestWorkspace) Context() context.Context {
	return context.Background()
}
