// Package audit keeps an append-only JSON-lines log of workspace mutations.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the log's name inside the state directory.
const FileName = "audit.log"

// Operations recorded by the workspace.
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpUpload   = "upload"
	OpTag      = "tag"
	OpUntag    = "untag"
	OpRelate   = "relate"
	OpUnrelate = "unrelate"
)

// Entry is one line of the audit log.
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Operation string         `json:"op"`
	ID        string         `json:"id,omitempty"`
	Type      string         `json:"type,omitempty"`
	Target    string         `json:"target,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Logger appends entries to the audit log. A nil or disabled Logger is a
// no-op.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New returns a logger writing to dir/audit.log, or nil when disabled.
func New(dir string, enabled bool) *Logger {
	if !enabled || dir == "" {
		return nil
	}
	return &Logger{path: filepath.Join(dir, FileName)}
}

// Path returns the log file path, or "" for a disabled logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Enabled reports whether entries are written.
func (l *Logger) Enabled() bool {
	return l != nil
}

// Log writes an entry, stamping it with the current time if unset.
func (l *Logger) Log(entry Entry) error {
	if l == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Read returns every well-formed entry in file order. Malformed lines are
// skipped.
func (l *Logger) Read() ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

// Filter narrows a read to entries touching id (as subject or target) and
// at or after since. Zero values match everything.
func (l *Logger) Filter(id string, since time.Time) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if id != "" && e.ID != id && e.Target != id {
			continue
		}
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
