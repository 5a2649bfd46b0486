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

// maxInArgs bounds the bind parameters of a single IN clause.
const maxInArgs = 500

// ListTags returns all tags ordered by name.
func (d *Database) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, name, color FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, scanTag)
}

func scanTag(rows *sql.Rows) (model.Tag, error) {
	var (
		tag   model.Tag
		color sql.NullString
	)
	if err := rows.Scan(&tag.ID, &tag.Name, &color); err != nil {
		return model.Tag{}, err
	}
	tag.Color = color.String
	return tag, nil
}

// GetTag returns a tag by ID.
func (d *Database) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	var (
		tag   model.Tag
		color sql.NullString
	)
	err := d.db.QueryRowContext(ctx, "SELECT id, name, color FROM tags WHERE id = ?", id).
		Scan(&tag.ID, &tag.Name, &color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	tag.Color = color.String
	return &tag, nil
}

// CreateTag inserts a tag with a generated ID. Names are unique; a duplicate
// returns ErrTagExists. An empty color falls back to model.DefaultTagColor.
func (d *Database) CreateTag(ctx context.Context, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name is required")
	}
	if color == "" {
		color = model.DefaultTagColor
	}

	tag := model.Tag{ID: newID(), Name: name, Color: color}
	_, err := d.db.ExecContext(ctx, "INSERT INTO tags (id, name, color) VALUES (?, ?, ?)", tag.ID, tag.Name, tag.Color)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrTagExists, name)
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return &tag, nil
}

// DeleteTag removes a tag and every link to it.
func (d *Database) DeleteTag(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM object_tags WHERE tag_id = ?", id); err != nil {
		return fmt.Errorf("delete tag links: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrTagNotFound
	}
	return tx.Commit()
}

// ObjectTags returns the tags linked to an object, ordered by name.
func (d *Database) ObjectTags(ctx context.Context, objectID string) ([]model.Tag, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color
		FROM object_tags ot
		JOIN tags t ON t.id = ot.tag_id
		WHERE ot.object_id = ?
		ORDER BY t.name`, objectID)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, scanTag)
}

// AttachTag links a tag to an object. Attaching an existing pair is a no-op.
func (d *Database) AttachTag(ctx context.Context, objectID, tagID string) error {
	if _, err := d.GetTag(ctx, tagID); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO object_tags (object_id, tag_id) VALUES (?, ?)", objectID, tagID)
	if err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

// DetachTag removes a tag link. Removing a missing link is a no-op.
func (d *Database) DetachTag(ctx context.Context, objectID, tagID string) error {
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM object_tags WHERE object_id = ? AND tag_id = ?", objectID, tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	return nil
}

// TaggedObjects reports which of ids have at least one tag link.
func (d *Database) TaggedObjects(ctx context.Context, ids []string) (map[string]bool, error) {
	tagged := make(map[string]bool)
	for start := 0; start < len(ids); start += maxInArgs {
		chunk := ids[start:min(start+maxInArgs, len(ids))]
		ph, args := sqlutil.InClauseArgs(chunk)
		rows, err := d.db.QueryContext(ctx,
			"SELECT DISTINCT object_id FROM object_tags WHERE object_id IN ("+ph+")", args...)
		if err != nil {
			return nil, fmt.Errorf("tagged objects: %w", err)
		}
		found, err := sqlutil.ScanRows(rows, func(r *sql.Rows) (string, error) {
			var id string
			return id, r.Scan(&id)
		})
		if err != nil {
			return nil, fmt.Errorf("tagged objects: %w", err)
		}
		for _, id := range found {
			tagged[id] = true
		}
	}
	return tagged, nil
}
