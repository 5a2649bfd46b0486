package workspace

import (
	"context"
	"fmt"

	"github.com/divehq/dive/internal/audit"
	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/object"
)

// metadataRow returns the store row ID that carries tags and relations for
// a composite ID. With ensure set, a missing shadow row is created first.
func (w *Workspace) metadataRow(ctx context.Context, id string, ensure bool) (string, error) {
	rec, err := w.Objects.MetadataRecord(ctx, id)
	if err != nil {
		return "", err
	}
	if ensure {
		if _, err := w.Store.EnsureObject(ctx, rec); err != nil {
			return "", fmt.Errorf("materialize metadata for %s: %w", id, err)
		}
	}
	return rec.ID, nil
}

// rowID converts a store row ID back to a composite ID.
func rowID(id string) string {
	return object.NewID(object.ProviderDatabase, id).String()
}

// ObjectTags lists the tags attached to a record.
func (w *Workspace) ObjectTags(ctx context.Context, id string) ([]model.Tag, error) {
	row, err := w.metadataRow(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return w.Store.ObjectTags(ctx, row)
}

// AttachTag links tagID to a record, creating its shadow row if needed.
func (w *Workspace) AttachTag(ctx context.Context, id, tagID string) error {
	if tagID == "" {
		return fmt.Errorf("%w: tag id is required", ErrInvalidInput)
	}
	row, err := w.metadataRow(ctx, id, true)
	if err != nil {
		return err
	}
	if err := w.Store.AttachTag(ctx, row, tagID); err != nil {
		return err
	}
	w.record(ctx, audit.Entry{Operation: audit.OpTag, ID: id, Target: tagID})
	return nil
}

// DetachTag unlinks tagID from a record.
func (w *Workspace) DetachTag(ctx context.Context, id, tagID string) error {
	if tagID == "" {
		return fmt.Errorf("%w: tag id is required", ErrInvalidInput)
	}
	row, err := w.metadataRow(ctx, id, false)
	if err != nil {
		return err
	}
	if err := w.Store.DetachTag(ctx, row, tagID); err != nil {
		return err
	}
	w.record(ctx, audit.Entry{Operation: audit.OpUntag, ID: id, Target: tagID})
	return nil
}

// Relate records a typed edge between two records. Endpoint IDs in the
// result are composite.
func (w *Workspace) Relate(ctx context.Context, sourceID, targetID, typ string, data any) (*model.Relation, error) {
	if sourceID == "" || targetID == "" || typ == "" {
		return nil, fmt.Errorf("%w: source, target and type are required", ErrInvalidInput)
	}
	src, err := w.metadataRow(ctx, sourceID, true)
	if err != nil {
		return nil, err
	}
	dst, err := w.metadataRow(ctx, targetID, true)
	if err != nil {
		return nil, err
	}
	rel, err := w.Store.CreateRelation(ctx, model.Relation{
		SourceID: src,
		TargetID: dst,
		Type:     typ,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}
	rel.SourceID, rel.TargetID = rowID(rel.SourceID), rowID(rel.TargetID)
	w.record(ctx, audit.Entry{Operation: audit.OpRelate, ID: rel.SourceID, Target: rel.TargetID, Type: typ})
	return rel, nil
}

// Unrelate deletes a relation by its row ID.
func (w *Workspace) Unrelate(ctx context.Context, relationID string) error {
	if err := w.Store.DeleteRelation(ctx, relationID); err != nil {
		return err
	}
	w.record(ctx, audit.Entry{Operation: audit.OpUnrelate, ID: relationID})
	return nil
}

// Relations lists both directions of edges touching a record.
func (w *Workspace) Relations(ctx context.Context, id string) ([]model.RelationView, error) {
	row, err := w.metadataRow(ctx, id, false)
	if err != nil {
		return nil, err
	}
	views, err := w.Store.RelationsFor(ctx, row)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].SourceID = rowID(views[i].SourceID)
		views[i].TargetID = rowID(views[i].TargetID)
		views[i].OtherObject.ID = rowID(views[i].OtherObject.ID)
	}
	return views, nil
}
