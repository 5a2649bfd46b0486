package testutil

import (
	"os"
	"strings"
)

// AssertFileNotExists fails the test if the file exists.
func (w *TestWorkspace) AssertFileNotExists(relPath string) {
	w.t.Helper()
	if _, err := os.Stat(w.Abs(relPath)); err == nil {
		w.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (w *TestWorkspace) AssertFileContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertObjectExists fails the test if the composite ID does not resolve.
func (w *TestWorkspace) AssertObjectExists(id string) {
	w.t.Helper()
	if _, err := w.WS.Get(w.Context(), id); err != nil {
		w.t.Errorf("expected object to exist: %s, got error: %v", id, err)
	}
}

// AssertTagged fails the test unless the object carries exactly the named
// tags, in any order.
func (w *TestWorkspace) AssertTagged(id string, names ...string) {
	w.t.Helper()
	tags, err := w.WS.ObjectTags(w.Context(), id)
	if err != nil {
		w.t.Errorf("failed to list tags of %s: %v", id, err)
		return
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	if len(tags) != len(want) {
		w.t.Errorf("expected %s to have tags %v, got %v", id, names, tags)
		return
	}
	for _, tag := range tags {
		if !want[tag.Name] {
			w.t.Errorf("expected %s to have tags %v, got %v", id, names, tags)
			return
		}
	}
}
