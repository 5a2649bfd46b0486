// Package store handles the SQLite metadata database: objects, tags,
// object-tag links and relations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/ksid"
	_ "modernc.org/sqlite"
)

// Database is the SQLite database handle.
type Database struct {
	db *sql.DB

	// now returns the current time; replaced in tests.
	now func() time.Time
}

var (
	// ErrObjectNotFound indicates the requested object ID has no row.
	ErrObjectNotFound = errors.New("object not found")
	// ErrTagNotFound indicates the requested tag ID has no row.
	ErrTagNotFound = errors.New("tag not found")
	// ErrTagExists indicates a tag with the same name already exists.
	ErrTagExists = errors.New("tag already exists")
	// ErrRelationNotFound indicates the requested relation ID has no row.
	ErrRelationNotFound = errors.New("relation not found")
)

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 1

// Open opens or creates the database at path.
func Open(path string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db, now: time.Now}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a distinct database.
	db.SetMaxOpenConns(1)

	d := &Database{db: db, now: time.Now}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// SetClock replaces the time source used for timestamps.
func (d *Database) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	d.now = now
}

func (d *Database) nowMillis() int64 {
	return d.now().UnixMilli()
}

func newID() string {
	return ksid.NewID().String()
}

// initialize creates the database schema.
func (d *Database) initialize() error {
	schema := `
		-- Enable WAL mode for better concurrency
		PRAGMA journal_mode = WAL;

		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		-- Metadata table for version tracking
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- Native objects and filesystem shadow rows
		CREATE TABLE IF NOT EXISTS objects (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT,
			content TEXT,               -- JSON, NULL for shadow rows
			properties TEXT,            -- JSON object
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			color TEXT
		);

		CREATE TABLE IF NOT EXISTS object_tags (
			object_id TEXT NOT NULL,
			tag_id TEXT NOT NULL,
			PRIMARY KEY (object_id, tag_id)
		);

		-- Directed edges; endpoints are not foreign keys so shadow rows and
		-- not-yet-materialized objects can be related.
		CREATE TABLE IF NOT EXISTS relations (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			type TEXT NOT NULL,
			data TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_objects_type ON objects(type);
		CREATE INDEX IF NOT EXISTS idx_objects_updated ON objects(updated_at);
		CREATE INDEX IF NOT EXISTS idx_object_tags_tag ON object_tags(tag_id);
		CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source_id);
		CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target_id);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}

	return nil
}

// Stats contains row counts for status output.
type Stats struct {
	ObjectCount   int `json:"objects"`
	ShadowCount   int `json:"shadow_objects"`
	TagCount      int `json:"tags"`
	LinkCount     int `json:"object_tags"`
	RelationCount int `json:"relations"`
}

// Stats returns statistics about the store.
func (d *Database) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM objects", &stats.ObjectCount},
		{"SELECT COUNT(*) FROM objects WHERE id LIKE 'filesystem:%'", &stats.ShadowCount},
		{"SELECT COUNT(*) FROM tags", &stats.TagCount},
		{"SELECT COUNT(*) FROM object_tags", &stats.LinkCount},
		{"SELECT COUNT(*) FROM relations", &stats.RelationCount},
	}
	for _, c := range counts {
		if err := d.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, err
		}
	}

	return &stats, nil
}
