package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Listen != DefaultListen || cfg.LogLevel != DefaultLogLevel {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if !cfg.Filesystem.ConfineEnabled() {
			t.Error("confine should default to true")
		}
		if cfg.StorageDir == "" || cfg.Database == "" {
			t.Error("storage paths should default from the platform")
		}
	})

	t.Run("file overrides selected keys", func(t *testing.T) {
		path := writeConfig(t, `
storage_dir = "/srv/dive/storage"
log_level = "debug"
watch = true

[filesystem]
ignore = ["**/build"]
confine = false

[ui]
accent = "39"
`)
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.StorageDir != "/srv/dive/storage" || cfg.LogLevel != "debug" || !cfg.Watch {
			t.Errorf("overrides not applied: %+v", cfg)
		}
		if cfg.Filesystem.ConfineEnabled() {
			t.Error("confine = false not applied")
		}
		if len(cfg.Filesystem.Ignore) != 1 || cfg.Filesystem.Ignore[0] != "**/build" {
			t.Errorf("ignore = %v", cfg.Filesystem.Ignore)
		}
		if cfg.Filesystem.SearchLimit != DefaultSearchLimit || cfg.Listen != DefaultListen {
			t.Errorf("unspecified keys lost their defaults: %+v", cfg)
		}
		if cfg.UI.Accent != "39" {
			t.Errorf("ui.accent = %q", cfg.UI.Accent)
		}
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		cfg, err := LoadFrom(writeConfig(t, `database = "~/dive/meta.db"`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := filepath.Join(home, "dive", "meta.db"); cfg.Database != want {
			t.Errorf("database = %q, want %q", cfg.Database, want)
		}
	})

	errorCases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "bad toml", content: `listen = `, want: "failed to parse"},
		{name: "unknown key", content: `colour = "red"`, want: "unknown keys: colour"},
		{name: "bad log level", content: `log_level = "loud"`, want: "log_level"},
		{name: "negative limit", content: "[filesystem]\nsearch_limit = -1", want: "search_limit"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestCreateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	created, err := CreateDefault(path)
	if err != nil || !created {
		t.Fatalf("CreateDefault = %v, %v", created, err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("listen = %q", cfg.Listen)
	}

	created, err = CreateDefault(path)
	if err != nil || created {
		t.Fatalf("second CreateDefault = %v, %v", created, err)
	}
}
