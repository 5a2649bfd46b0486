// Package workspace wires the metadata store, the object providers and the
// plugin manifest into the operations shared by the HTTP API and the CLI.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/divehq/dive/internal/audit"
	"github.com/divehq/dive/internal/config"
	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/plugin"
	"github.com/divehq/dive/internal/slugs"
	"github.com/divehq/dive/internal/store"
)

// ErrInvalidInput marks requests rejected before reaching a provider.
var ErrInvalidInput = errors.New("invalid input")

// Options locates and tunes a workspace.
type Options struct {
	StorageDir   string
	DatabasePath string

	// InMemory opens a throwaway metadata store; DatabasePath is ignored.
	InMemory bool

	Ignore      []string
	SearchLimit int
	Confine     bool

	// Audit appends mutations to audit.log beside the database.
	Audit bool
}

// OptionsFromConfig maps the global config onto workspace options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		StorageDir:   cfg.StorageDir,
		DatabasePath: cfg.Database,
		Ignore:       cfg.Filesystem.Ignore,
		SearchLimit:  cfg.Filesystem.SearchLimit,
		Confine:      cfg.Filesystem.ConfineEnabled(),
		Audit:        cfg.Audit,
	}
}

// Workspace is an opened dive workspace.
type Workspace struct {
	Store   *store.Database
	Files   *object.FilesystemProvider
	Objects *object.Registry
	Plugins *plugin.Registry
	Audit   *audit.Logger
}

// Open opens the metadata store and registers the database and filesystem
// providers with the built-in plugins.
func Open(opts Options) (*Workspace, error) {
	var (
		db  *store.Database
		err error
	)
	if opts.InMemory {
		db, err = store.OpenInMemory()
	} else {
		db, err = store.Open(opts.DatabasePath)
	}
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	files, err := object.NewFilesystemProvider(object.FilesystemConfig{
		Root:        opts.StorageDir,
		Ignore:      opts.Ignore,
		SearchLimit: opts.SearchLimit,
		Confine:     opts.Confine,
	}, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	var auditLog *audit.Logger
	if opts.Audit && !opts.InMemory {
		auditLog = audit.New(filepath.Dir(opts.DatabasePath), true)
	}

	return &Workspace{
		Store:   db,
		Files:   files,
		Objects: object.NewRegistry(object.NewDatabaseProvider(db, files), files),
		Plugins: plugin.NewDefaultRegistry(),
		Audit:   auditLog,
	}, nil
}

// record appends an audit entry. Audit failures never fail the mutation.
func (w *Workspace) record(ctx context.Context, e audit.Entry) {
	if err := w.Audit.Log(e); err != nil {
		slog.WarnContext(ctx, "Audit write failed", "op", e.Operation, "id", e.ID, "err", err)
	}
}

// Close releases the metadata store.
func (w *Workspace) Close() error {
	return w.Store.Close()
}

// Search runs a federated search.
func (w *Workspace) Search(ctx context.Context, query string, filters object.Filters, opts object.SearchOptions) []object.Result {
	return w.Objects.Search(ctx, query, filters, opts)
}

// Get returns one record by composite ID.
func (w *Workspace) Get(ctx context.Context, id string) (*object.Result, error) {
	return w.Objects.Get(ctx, id)
}

// derivedProps are computed on every read of a file-backed record and are
// never stored as metadata.
var derivedProps = []string{"size", "path", "mime", "error"}

// Put validates req against the plugin owning the record's type, writes it
// and returns the stored record. On an existing record, nil content keeps the
// stored content and req.Properties are merged over the stored properties.
func (w *Workspace) Put(ctx context.Context, id string, req object.PutRequest) (*object.Result, error) {
	typ := req.Type
	existing, err := w.Objects.Get(ctx, id)
	switch {
	case err == nil:
		if typ == "" {
			typ = existing.Type
		}
		req.Properties = MergeProperties(existing, req.Properties)
	case errors.Is(err, object.ErrNotFound):
	default:
		return nil, err
	}
	if typ != "" && req.Content != nil {
		if err := w.Plugins.Validate(ctx, typ, req.Content); err != nil {
			return nil, err
		}
	}

	if err := w.Objects.Put(ctx, id, req); err != nil {
		return nil, err
	}
	w.record(ctx, audit.Entry{Operation: audit.OpUpdate, ID: id, Type: typ})
	return w.Objects.Get(ctx, id)
}

// Create stores a new native database object and returns it.
func (w *Workspace) Create(ctx context.Context, req object.PutRequest) (*object.Result, error) {
	if req.Type == "" {
		req.Type = object.DefaultObjectType
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Untitled"
	}
	if err := w.Plugins.Validate(ctx, req.Type, req.Content); err != nil {
		return nil, err
	}

	obj, err := w.Store.CreateObject(ctx, model.Object{
		Type:       req.Type,
		Name:       name,
		Content:    req.Content,
		Properties: req.Properties,
	})
	if err != nil {
		return nil, err
	}
	id := object.NewID(object.ProviderDatabase, obj.ID).String()
	w.record(ctx, audit.Entry{Operation: audit.OpCreate, ID: id, Type: obj.Type})
	return w.Objects.Get(ctx, id)
}

// Upload stores r as a new file in the storage root under a slug of name and
// returns the file's composite ID.
func (w *Workspace) Upload(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	fileName := slugs.FileName(name)
	if fileName == "" {
		return "", 0, fmt.Errorf("%w: file name %q has no usable characters", ErrInvalidInput, name)
	}
	path, n, err := w.Files.Create(ctx, fileName, r, uploadType(fileName))
	if err != nil {
		return "", 0, err
	}
	id := object.NewID(object.ProviderFilesystem, path).String()
	w.record(ctx, audit.Entry{Operation: audit.OpUpload, ID: id, Extra: map[string]any{"size": n}})
	return id, n, nil
}

func uploadType(name string) string {
	mt := mime.TypeByExtension(filepath.Ext(name))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return "image"
	case strings.HasPrefix(mt, "video/"):
		return "video"
	case isMarkdown(name):
		return "markdown"
	default:
		return "file"
	}
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// MergeProperties overlays updates on the stored properties of res.
// Properties derived from a file's stat are dropped.
func MergeProperties(res *object.Result, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(res.Properties)+len(updates))
	for k, v := range res.Properties {
		merged[k] = v
	}
	if res.ProviderID == object.ProviderFilesystem || model.IsShadowID(strings.TrimPrefix(res.ID, object.ProviderDatabase+":")) {
		for _, k := range derivedProps {
			delete(merged, k)
		}
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
