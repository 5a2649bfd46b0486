package paths

import (
	"errors"
	"path/filepath"
	"testing"
)

func withPlatform(t *testing.T, platform, home string, env map[string]string) {
	t.Helper()
	prevGOOS, prevHome, prevGetenv := goos, userHomeDir, getenv
	t.Cleanup(func() {
		goos, userHomeDir, getenv = prevGOOS, prevHome, prevGetenv
	})
	goos = platform
	userHomeDir = func() (string, error) { return home, nil }
	getenv = func(key string) string { return env[key] }
}

func TestStorageDir(t *testing.T) {
	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{"linux", "linux", nil, filepath.Join("/home/u", ".local", "share", "dive", "storage")},
		{"darwin", "darwin", nil, filepath.Join("/home/u", "Library", "Application Support", "dive", "storage")},
		{"windows appdata", "windows", map[string]string{"APPDATA": "/appdata"}, filepath.Join("/appdata", "dive", "storage")},
		{"windows fallback", "windows", nil, filepath.Join("/home/u", "AppData", "Roaming", "dive", "storage")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withPlatform(t, tc.goos, "/home/u", tc.env)
			if got := StorageDir(); got != tc.want {
				t.Fatalf("StorageDir() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDatabasePathIsOutsideStorage(t *testing.T) {
	withPlatform(t, "linux", "/home/u", nil)
	if Within(StorageDir(), DatabasePath()) {
		t.Fatalf("DatabasePath() = %q should not be inside %q", DatabasePath(), StorageDir())
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()

	got, err := Resolve(root, "notes/a.md", true)
	if err != nil {
		t.Fatalf("Resolve relative: %v", err)
	}
	if want := filepath.Join(root, "notes", "a.md"); got != want {
		t.Fatalf("Resolve relative = %q, want %q", got, want)
	}

	abs := filepath.Join(root, "b.txt")
	if got, err := Resolve(root, abs, true); err != nil || got != abs {
		t.Fatalf("Resolve absolute inside root = %q, %v", got, err)
	}

	if _, err := Resolve(root, "../escape.txt", true); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("Resolve escape error = %v, want ErrOutsideRoot", err)
	}
	if _, err := Resolve(root, "../escape.txt", false); err != nil {
		t.Fatalf("Resolve unconfined escape: %v", err)
	}
	if _, err := Resolve(root, "", false); err == nil {
		t.Fatal("Resolve empty id should fail")
	}
}

func TestWithin(t *testing.T) {
	root := filepath.Join("/", "data", "root")
	tests := []struct {
		p    string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "a"), true},
		{filepath.Join(root, "a", "b"), true},
		{filepath.Join("/", "data", "rootless"), false},
		{filepath.Join("/", "data"), false},
		{filepath.Join(root, "..", "x"), false},
	}
	for _, tc := range tests {
		if got := Within(root, tc.p); got != tc.want {
			t.Errorf("Within(%q, %q) = %v, want %v", root, tc.p, got, tc.want)
		}
	}
}
