// Package config handles global dive configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/divehq/dive/internal/atomicfile"
	"github.com/divehq/dive/internal/paths"
)

// Defaults for keys left out of the config file.
const (
	DefaultListen       = "127.0.0.1:4321"
	DefaultLogLevel     = "info"
	DefaultSearchLimit  = 50
	DefaultMaxBodyBytes = 32 << 20
)

// LogLevels lists the accepted log_level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config represents the global dive configuration.
type Config struct {
	// StorageDir roots the filesystem provider and receives uploads.
	StorageDir string `toml:"storage_dir"`

	// Database is the path of the SQLite metadata store.
	Database string `toml:"database"`

	// Listen is the HTTP listen address for `dive serve`.
	Listen string `toml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// Watch enables syncing of external file edits into the metadata store.
	Watch bool `toml:"watch"`

	// Audit appends every mutation to audit.log next to the database.
	Audit bool `toml:"audit"`

	Filesystem FilesystemConfig `toml:"filesystem"`
	Server     ServerConfig     `toml:"server"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// FilesystemConfig tunes the filesystem provider.
type FilesystemConfig struct {
	// Ignore lists doublestar globs skipped in addition to the reserved
	// directories (.git, node_modules, ...).
	Ignore []string `toml:"ignore"`

	// SearchLimit caps results per filesystem search.
	SearchLimit int `toml:"search_limit"`

	// Confine rejects object IDs outside the storage dir. Defaults to true.
	Confine *bool `toml:"confine"`
}

// ConfineEnabled reports the effective confine setting.
func (f FilesystemConfig) ConfineEnabled() bool {
	return f.Confine == nil || *f.Confine
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	// MaxBodyBytes limits request bodies, uploads included.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		StorageDir: paths.StorageDir(),
		Database:   paths.DatabasePath(),
		Listen:     DefaultListen,
		LogLevel:   DefaultLogLevel,
		Filesystem: FilesystemConfig{SearchLimit: DefaultSearchLimit},
		Server:     ServerConfig{MaxBodyBytes: DefaultMaxBodyBytes},
	}
}

// Load loads the configuration from path, or from DefaultPath when path is
// empty. A missing file yields Default().
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path. Keys absent from the
// file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.StorageDir = expandHome(cfg.StorageDir)
	cfg.Database = expandHome(cfg.Database)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorageDir) == "" {
		return errors.New("storage_dir must not be empty")
	}
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("database must not be empty")
	}
	if !slices.Contains(LogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("log_level %q must be one of %s", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	if c.Filesystem.SearchLimit < 0 {
		return errors.New("filesystem.search_limit must not be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// DefaultPath returns the default config file path.
// Checks ~/.config/dive/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if xdgPath, err := XDGPath(); err == nil {
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, paths.AppName, "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/dive/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", paths.AppName, "config.toml"), nil
}

// CreateDefault writes a commented config file at path unless one exists.
// It reports whether a file was written.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	def := Default()
	content := fmt.Sprintf(`# dive configuration

# Directory served by the filesystem provider. Uploads land here.
# storage_dir = %q

# SQLite metadata store (tags, relations, database objects).
# database = %q

# listen = %q
# log_level = %q

# Bump updated_at of tagged files edited outside dive.
# watch = false

# Append every mutation to audit.log next to the database.
# audit = false

[filesystem]
# Extra doublestar globs to skip; .git, node_modules and .gemini are always skipped.
# ignore = ["**/build", "*.tmp"]
# search_limit = %d
# confine = true

[server]
# max_body_bytes = %d

# Optional UI accent color for headers/links in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
[ui]
# accent = "39"
# code_theme = "monokai"
`, def.StorageDir, def.Database, def.Listen, def.LogLevel, def.Filesystem.SearchLimit, def.Server.MaxBodyBytes)

	if err := atomicfile.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
