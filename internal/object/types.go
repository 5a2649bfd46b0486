// Package object federates heterogeneous object stores behind one composite
// addressing scheme ("provider:innerId").
//
// A Registry owns a set of named Providers. Searches fan out to every
// provider concurrently and merge the results; point reads and writes are
// routed to the provider named by the ID prefix.
package object

import (
	"context"
	"errors"

	"github.com/divehq/dive/internal/model"
)

// Provider names registered by default.
const (
	ProviderDatabase   = "database"
	ProviderFilesystem = "filesystem"
)

var (
	// ErrInvalidID indicates a malformed composite or provider-local ID.
	ErrInvalidID = errors.New("invalid object id")
	// ErrProviderNotFound indicates the ID prefix names no registered provider.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrNotFound indicates the provider has no record for the ID.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidContent indicates a payload the provider cannot store.
	ErrInvalidContent = errors.New("invalid content")
	// ErrExists indicates a create would overwrite an existing record.
	ErrExists = errors.New("object already exists")
)

// Result is one record surfaced by a provider.
type Result struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Content    any            `json:"content,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  int64          `json:"created_at,omitempty"`
	UpdatedAt  int64          `json:"updated_at,omitempty"`

	// ProviderID names the provider the record came from.
	ProviderID string `json:"provider_id"`
	Icon       string `json:"icon,omitempty"`
}

// Filters narrows a search.
type Filters struct {
	// Tags requires every listed tag ID to be linked.
	Tags []string `json:"tags,omitempty"`
	// Untagged requires zero tag links.
	Untagged bool `json:"untagged,omitempty"`
	// Type restricts the record type.
	Type string `json:"type,omitempty"`
}

// SearchOptions shape the merged result set.
type SearchOptions struct {
	// Limit truncates the merged results; zero means unlimited.
	Limit int
	// Recent orders merged results by UpdatedAt, newest first.
	Recent bool
}

// PutRequest carries the fields a write may set.
type PutRequest struct {
	Content    any            `json:"content"`
	Properties map[string]any `json:"properties,omitempty"`

	// Name and Type are only used when the write creates a record.
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// Provider is a backing store exposing search/get/put over its own namespace
// of inner IDs.
type Provider interface {
	// Name is the provider's prefix in composite IDs.
	Name() string

	// Search returns records matching query and filters. Implementations
	// should log I/O failures and return an empty slice.
	Search(ctx context.Context, query string, filters Filters) ([]Result, error)

	// Get returns one record, or (nil, nil) when it does not exist.
	Get(ctx context.Context, innerID string) (*Result, error)

	// Put creates or updates one record.
	Put(ctx context.Context, innerID string, req PutRequest) error
}

// MetadataRecorder is implemented by providers whose records can carry tags
// and relations in the metadata store. MetadataRecord returns the row that
// holds that metadata, which may not be persisted yet.
type MetadataRecorder interface {
	MetadataRecord(ctx context.Context, innerID string) (model.Object, error)
}
