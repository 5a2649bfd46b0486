// Package watcher keeps shadow rows in step with edits made to the storage
// directory outside of dive.
//
// Files written externally get their shadow row's updated_at bumped so they
// sort as recent. Removals are only logged; shadow rows of deleted files stay
// until removed explicitly.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/store"
)

// Watcher monitors a storage directory for external changes.
type Watcher struct {
	files *object.FilesystemProvider
	db    *store.Database

	debounceDelay time.Duration

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex

	onSync func(path string, touched bool, err error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Files         *object.FilesystemProvider
	Database      *store.Database
	DebounceDelay time.Duration // Default: 100ms

	// OnSync, if set, is called after each debounced file is processed.
	OnSync func(path string, touched bool, err error)
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Files == nil {
		return nil, errors.New("filesystem provider is required")
	}
	if cfg.Database == nil {
		return nil, errors.New("database is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		files:         cfg.Files,
		db:            cfg.Database,
		debounceDelay: debounce,
		pending:       make(map[string]time.Time),
		onSync:        cfg.OnSync,
	}, nil
}

// Start watches the storage root until ctx is cancelled. A missing root is
// created first.
func (w *Watcher) Start(ctx context.Context) error {
	root := w.files.Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	w.mu.Lock()
	w.fsWatcher = fsw
	w.mu.Unlock()

	if err := w.addWatchRecursive(ctx, root); err != nil {
		return fmt.Errorf("failed to watch storage directory: %w", err)
	}
	slog.InfoContext(ctx, "Watching storage directory", "root", root)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Watcher error", "err", err)
		}
	}
}

// SyncFile bumps updated_at of the shadow row for path, if one exists.
// It reports whether a row was touched.
func (w *Watcher) SyncFile(ctx context.Context, path string) (bool, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.files.Root(), path)
	}
	return w.db.TouchObject(ctx, object.ShadowKey(path))
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if w.ignored(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addWatchRecursive(ctx, path); err != nil {
				slog.WarnContext(ctx, "Failed to watch directory", "path", path, "err", err)
			}
			return
		}
		w.schedule(path)
	case event.Has(fsnotify.Write):
		w.schedule(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		slog.DebugContext(ctx, "File removed outside dive", "path", path)
	}
}

// ignored skips reserved paths and in-flight atomic write temp files.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && strings.Contains(base, ".tmp-") {
		return true
	}
	rel, err := filepath.Rel(w.files.Root(), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	// Check every ancestor so events from reserved directories never leak.
	for dir := path; dir != w.files.Root() && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if w.files.Ignored(dir) {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending syncs files whose last event is older than the debounce
// delay.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		touched, err := w.SyncFile(ctx, path)
		if w.onSync != nil {
			w.onSync(path, touched, err)
		}
		if err != nil {
			slog.WarnContext(ctx, "Failed to sync file", "path", path, "err", err)
		} else if touched {
			slog.DebugContext(ctx, "Synced external edit", "path", path)
		}
	}
}

func (w *Watcher) addWatchRecursive(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.files.Root() && w.files.Ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			slog.DebugContext(ctx, "Failed to watch directory", "path", path, "err", err)
		}
		return nil
	})
}
