package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/sqlutil"
)

// CreateRelation inserts rel with a generated ID and creation time.
// Endpoints are not checked for existence.
func (d *Database) CreateRelation(ctx context.Context, rel model.Relation) (*model.Relation, error) {
	if rel.SourceID == "" || rel.TargetID == "" || rel.Type == "" {
		return nil, errors.New("relation requires source, target and type")
	}
	rel.ID = newID()
	rel.CreatedAt = d.nowMillis()
	if rel.Data == nil {
		rel.Data = map[string]any{}
	}

	data, err := sqlutil.JSONColumn(rel.Data)
	if err != nil {
		return nil, err
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO relations (id, source_id, target_id, type, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.SourceID, rel.TargetID, rel.Type, data, rel.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert relation: %w", err)
	}
	return &rel, nil
}

// DeleteRelation removes a relation by ID.
func (d *Database) DeleteRelation(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM relations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete relation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRelationNotFound
	}
	return nil
}

func scanRelation(rows *sql.Rows) (model.Relation, error) {
	var (
		rel  model.Relation
		data sql.NullString
	)
	if err := rows.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &rel.Type, &data, &rel.CreatedAt); err != nil {
		return model.Relation{}, err
	}
	var err error
	if rel.Data, err = sqlutil.DecodeJSONColumn(data); err != nil {
		return model.Relation{}, fmt.Errorf("relation %s: %w", rel.ID, err)
	}
	return rel, nil
}

// RelationsFor returns every relation where objectID is the source or the
// target, enriched with the object on the other end. Relations whose other
// end has no object row are skipped.
func (d *Database) RelationsFor(ctx context.Context, objectID string) ([]model.RelationView, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, source_id, target_id, type, data, created_at
		FROM relations
		WHERE source_id = ? OR target_id = ?
		ORDER BY created_at, id`, objectID, objectID)
	if err != nil {
		return nil, err
	}
	relations, err := sqlutil.ScanRows(rows, scanRelation)
	if err != nil {
		return nil, err
	}

	views := make([]model.RelationView, 0, len(relations))
	for _, rel := range relations {
		otherID, direction := rel.TargetID, model.DirectionOutgoing
		if rel.SourceID != objectID {
			otherID, direction = rel.SourceID, model.DirectionIncoming
		}

		other, err := d.GetObject(ctx, otherID)
		if errors.Is(err, ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		views = append(views, model.RelationView{
			Relation:    rel,
			OtherObject: model.ObjectSummary{ID: other.ID, Name: other.Name, Type: other.Type},
			Direction:   direction,
		})
	}
	return views, nil
}
