package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/sqlutil"
)

// ObjectQuery selects objects for SearchObjects.
type ObjectQuery struct {
	// Terms must all appear in the object name (case-insensitive substring).
	Terms []string

	// Tags restricts results to objects linked to every listed tag ID.
	Tags []string

	// Untagged restricts results to objects with no tag links.
	Untagged bool

	// Type restricts results to one object type.
	Type string

	// Recent orders by updated_at descending instead of creation order.
	Recent bool

	// Limit caps the number of rows; zero means unlimited.
	Limit int
}

// GetObject returns the object with the given storage ID.
func (d *Database) GetObject(ctx context.Context, id string) (*model.Object, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+objectColumns+" FROM objects WHERE id = ?", id)
	obj, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// CreateObject inserts a new object. An empty ID is replaced with a fresh
// ksid; timestamps are always assigned by the store.
func (d *Database) CreateObject(ctx context.Context, obj model.Object) (*model.Object, error) {
	if obj.ID == "" {
		obj.ID = newID()
	}
	if obj.Type == "" {
		return nil, errors.New("object type is required")
	}
	if obj.IsShadow() {
		obj.Content = nil
	}
	now := d.nowMillis()
	obj.CreatedAt, obj.UpdatedAt = now, now

	if err := insertObject(ctx, d.db, obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertObject(ctx context.Context, e execContexter, obj model.Object) error {
	content, err := sqlutil.JSONColumn(obj.Content)
	if err != nil {
		return err
	}
	props, err := sqlutil.JSONColumn(obj.Properties)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, `
		INSERT INTO objects (id, type, name, path, content, properties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.ID, obj.Type, obj.Name, nullIfEmpty(obj.Path), content, props, obj.CreatedAt, obj.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert object %s: %w", obj.ID, err)
	}
	return nil
}

// UpsertObject creates obj if no row exists for obj.ID, otherwise updates its
// content and properties and bumps updated_at. Type, name and created_at of
// an existing row are left untouched. Shadow rows never store content.
//
// updated_at strictly increases on every update, even if the clock does not.
func (d *Database) UpsertObject(ctx context.Context, obj model.Object) (*model.Object, bool, error) {
	if obj.ID == "" {
		return nil, false, errors.New("object id is required")
	}
	if obj.IsShadow() {
		obj.Content = nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	now := d.nowMillis()
	existing, err := scanObject(tx.QueryRowContext(ctx, "SELECT "+objectColumns+" FROM objects WHERE id = ?", obj.ID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if obj.Type == "" {
			obj.Type = "file"
		}
		obj.CreatedAt, obj.UpdatedAt = now, now
		if err := insertObject(ctx, tx, obj); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return &obj, true, nil
	case err != nil:
		return nil, false, err
	}

	content, err := sqlutil.JSONColumn(obj.Content)
	if err != nil {
		return nil, false, err
	}
	props, err := sqlutil.JSONColumn(obj.Properties)
	if err != nil {
		return nil, false, err
	}
	updatedAt := max(existing.UpdatedAt+1, now)
	if _, err := tx.ExecContext(ctx,
		"UPDATE objects SET content = COALESCE(?, content), properties = COALESCE(?, properties), updated_at = ? WHERE id = ?",
		content, props, updatedAt, obj.ID); err != nil {
		return nil, false, fmt.Errorf("update object %s: %w", obj.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	if content.Valid {
		existing.Content = obj.Content
	}
	if props.Valid {
		existing.Properties = obj.Properties
	}
	existing.UpdatedAt = updatedAt
	return &existing, false, nil
}

// EnsureObject inserts obj when no row exists for its ID and returns the
// stored row either way. Used to materialize shadow rows before tagging.
func (d *Database) EnsureObject(ctx context.Context, obj model.Object) (*model.Object, error) {
	if existing, err := d.GetObject(ctx, obj.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrObjectNotFound) {
		return nil, err
	}
	created, err := d.CreateObject(ctx, obj)
	if err != nil && isUniqueViolation(err) {
		return d.GetObject(ctx, obj.ID)
	}
	return created, err
}

// TouchObject bumps updated_at of an existing row. It reports whether a row
// was found.
func (d *Database) TouchObject(ctx context.Context, id string) (bool, error) {
	res, err := d.db.ExecContext(ctx,
		"UPDATE objects SET updated_at = MAX(updated_at + 1, ?) WHERE id = ?", d.nowMillis(), id)
	if err != nil {
		return false, fmt.Errorf("touch object %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SearchObjects returns the objects matching q.
func (d *Database) SearchObjects(ctx context.Context, q ObjectQuery) ([]model.Object, error) {
	var (
		conditions []string
		args       []any
	)

	for _, term := range q.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		conditions = append(conditions, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+sqlutil.EscapeLike(term)+"%")
	}

	if tags := dedupe(q.Tags); len(tags) > 0 {
		placeholders, tagArgs := sqlutil.InClauseArgs(tags)
		conditions = append(conditions, `id IN (
			SELECT object_id FROM object_tags
			WHERE tag_id IN (`+placeholders+`)
			GROUP BY object_id
			HAVING COUNT(DISTINCT tag_id) = ?)`)
		args = append(args, tagArgs...)
		args = append(args, len(tags))
	}

	if q.Untagged {
		conditions = append(conditions, "id NOT IN (SELECT object_id FROM object_tags)")
	}

	if q.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, q.Type)
	}

	query := "SELECT " + objectColumns + " FROM objects"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if q.Recent {
		query += " ORDER BY updated_at DESC, id"
	} else {
		query += " ORDER BY created_at, id"
	}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search objects: %w", err)
	}
	return sqlutil.ScanRows(rows, scanObjectRows)
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
