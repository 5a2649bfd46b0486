// Package model defines the records persisted in the metadata store.
package model

import "strings"

// ShadowPrefix marks object rows whose content lives on the filesystem.
// Such rows are keyed by the full composite ID, e.g. "filesystem:/notes/a.md".
const ShadowPrefix = "filesystem:"

// Object is a row of the objects table.
type Object struct {
	// ID is the storage key. Native objects use a generated ksid; shadow rows
	// use the filesystem composite ID.
	ID string `json:"id"`

	// Type is the object kind, e.g. "markdown", "canvas", "image", "file".
	Type string `json:"type"`

	Name string `json:"name"`

	// Path is an optional display path for folder-style listings.
	Path string `json:"path,omitempty"`

	// Content is the decoded JSON payload. Its shape depends on Type.
	// Always nil for shadow rows.
	Content any `json:"content,omitempty"`

	// Properties is a free-form key/value bag.
	Properties map[string]any `json:"properties,omitempty"`

	// CreatedAt and UpdatedAt are unix milliseconds.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// IsShadow reports whether the row only carries metadata for a filesystem file.
func (o Object) IsShadow() bool {
	return IsShadowID(o.ID)
}

// IsShadowID reports whether id keys a shadow row.
func IsShadowID(id string) bool {
	return strings.HasPrefix(id, ShadowPrefix)
}

// ShadowPath returns the filesystem path a shadow ID points at.
func ShadowPath(id string) string {
	return strings.TrimPrefix(id, ShadowPrefix)
}
