// Package lastresults persists the most recent search results so follow-up
// commands can refer to them by number (`dive show 2`).
package lastresults

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/divehq/dive/internal/atomicfile"
	"github.com/divehq/dive/internal/object"
)

// FileName is the state file written next to the metadata database.
const FileName = "last-results.json"

// Errors
var (
	ErrNoLastResults    = errors.New("no last results available")
	ErrNumberOutOfRange = errors.New("result number out of range")
)

// LastResults stores the results of the most recent search.
type LastResults struct {
	Query     string    `json:"query,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Results   []Entry   `json:"results"`
}

// Entry is the part of a search result needed to address it again.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Path returns the path of the state file in dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// New builds a LastResults from search results.
func New(query string, results []object.Result) *LastResults {
	entries := make([]Entry, len(results))
	for i, r := range results {
		entries[i] = Entry{ID: r.ID, Name: r.Name, Type: r.Type}
	}
	return &LastResults{
		Query:     query,
		Timestamp: time.Now(),
		Results:   entries,
	}
}

// Write saves the last results to dir.
func Write(dir string, lr *LastResults) error {
	data, err := json.MarshalIndent(lr, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal last results: %w", err)
	}
	if err := atomicfile.WriteFile(Path(dir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write last results: %w", err)
	}
	return nil
}

// Read loads the last results from dir.
func Read(dir string) (*LastResults, error) {
	data, err := os.ReadFile(Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoLastResults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last results: %w", err)
	}

	var lr LastResults
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("failed to parse last results: %w", err)
	}
	return &lr, nil
}

// Get returns the result with the given number (1-indexed).
func (lr *LastResults) Get(num int) (Entry, error) {
	if num < 1 || num > len(lr.Results) {
		return Entry{}, fmt.Errorf("%w: %d (valid range: 1-%d)", ErrNumberOutOfRange, num, len(lr.Results))
	}
	return lr.Results[num-1], nil
}

// ParseNumber reports whether ref is a result number such as "3" or "#3".
func ParseNumber(ref string) (int, bool) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if ref == "" {
		return 0, false
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Resolve maps ref to a composite ID. Refs that are not result numbers are
// returned unchanged.
func Resolve(dir, ref string) (string, error) {
	num, ok := ParseNumber(ref)
	if !ok {
		return ref, nil
	}
	lr, err := Read(dir)
	if err != nil {
		return "", err
	}
	entry, err := lr.Get(num)
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}
