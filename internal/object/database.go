package object

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/store"
)

// DefaultObjectType is assigned to database objects created without a type.
const DefaultObjectType = "markdown"

// DatabaseProvider serves objects from the metadata store. Rows keyed by a
// filesystem composite ID (shadow rows) take their content from disk.
type DatabaseProvider struct {
	db    *store.Database
	files *FilesystemProvider
}

// NewDatabaseProvider returns a provider over db. files handles content for
// shadow rows; when nil, shadow rows are served without content and cannot
// be written.
func NewDatabaseProvider(db *store.Database, files *FilesystemProvider) *DatabaseProvider {
	return &DatabaseProvider{db: db, files: files}
}

// Name implements Provider.
func (p *DatabaseProvider) Name() string { return ProviderDatabase }

// Search implements Provider. Every whitespace-separated token of query must
// occur in the object name.
func (p *DatabaseProvider) Search(ctx context.Context, query string, filters Filters) ([]Result, error) {
	objs, err := p.db.SearchObjects(ctx, store.ObjectQuery{
		Terms:    strings.Fields(query),
		Tags:     filters.Tags,
		Untagged: filters.Untagged,
		Type:     filters.Type,
	})
	if err != nil {
		slog.WarnContext(ctx, "Database search failed", "query", query, "err", err)
		return []Result{}, nil
	}

	results := make([]Result, 0, len(objs))
	for _, obj := range objs {
		results = append(results, objectResult(obj))
	}
	return results, nil
}

// Get implements Provider.
func (p *DatabaseProvider) Get(ctx context.Context, innerID string) (*Result, error) {
	obj, err := p.db.GetObject(ctx, innerID)
	if errors.Is(err, store.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := objectResult(*obj)
	if !obj.IsShadow() {
		return &res, nil
	}

	// The filesystem owns the bytes of shadow rows.
	content, err := p.readShadow(model.ShadowPath(obj.ID))
	if err != nil {
		slog.WarnContext(ctx, "Shadow file unreadable", "id", obj.ID, "err", err)
		res.Content = nil
		res.Properties = withProperty(res.Properties, "error", "file missing")
		return &res, nil
	}
	res.Content = content
	return &res, nil
}

func (p *DatabaseProvider) readShadow(path string) (string, error) {
	if p.files == nil {
		return "", errors.New("filesystem provider not configured")
	}
	return p.files.ReadContent(path)
}

// Put implements Provider. Shadow IDs write the file through the filesystem
// provider, which also upserts the shadow row.
func (p *DatabaseProvider) Put(ctx context.Context, innerID string, req PutRequest) error {
	if model.IsShadowID(innerID) {
		if p.files == nil {
			return fmt.Errorf("%w: filesystem provider not configured", ErrInvalidID)
		}
		return p.files.Put(ctx, model.ShadowPath(innerID), req)
	}

	typ := req.Type
	if typ == "" {
		typ = DefaultObjectType
	}
	name := req.Name
	if name == "" {
		name = innerID
	}
	_, _, err := p.db.UpsertObject(ctx, model.Object{
		ID:         innerID,
		Type:       typ,
		Name:       name,
		Content:    req.Content,
		Properties: req.Properties,
	})
	return err
}

// MetadataRecord implements MetadataRecorder. Only existing rows qualify.
func (p *DatabaseProvider) MetadataRecord(ctx context.Context, innerID string) (model.Object, error) {
	obj, err := p.db.GetObject(ctx, innerID)
	if errors.Is(err, store.ErrObjectNotFound) {
		return model.Object{}, fmt.Errorf("%w: %s", ErrNotFound, innerID)
	}
	if err != nil {
		return model.Object{}, err
	}
	return *obj, nil
}

func objectResult(obj model.Object) Result {
	icon := "database"
	if obj.IsShadow() {
		icon = "file"
	}
	return Result{
		ID:         obj.ID,
		Type:       obj.Type,
		Name:       obj.Name,
		Content:    obj.Content,
		Properties: obj.Properties,
		CreatedAt:  obj.CreatedAt,
		UpdatedAt:  obj.UpdatedAt,
		ProviderID: ProviderDatabase,
		Icon:       icon,
	}
}

func withProperty(props map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(props)+1)
	maps.Copy(out, props)
	out[key] = value
	return out
}
