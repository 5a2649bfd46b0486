// Package seed loads fixture objects, tags and relations from YAML into the
// metadata store.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/store"
)

// Fixture is the top-level document of a seed file.
type Fixture struct {
	Tags      []Tag      `yaml:"tags"`
	Objects   []Object   `yaml:"objects"`
	Relations []Relation `yaml:"relations"`
}

// Tag declares a tag by name.
type Tag struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// Object declares a metadata row. ID is required so reseeding updates the
// same row. Tags lists tag names; missing tags are created.
type Object struct {
	ID         string         `yaml:"id"`
	Type       string         `yaml:"type"`
	Name       string         `yaml:"name"`
	Path       string         `yaml:"path"`
	Content    any            `yaml:"content"`
	Properties map[string]any `yaml:"properties"`
	Tags       []string       `yaml:"tags"`
}

// Relation declares a typed edge between two row IDs.
type Relation struct {
	Source string         `yaml:"source"`
	Target string         `yaml:"target"`
	Type   string         `yaml:"type"`
	Data   map[string]any `yaml:"data"`
}

// Report counts what a Load changed.
type Report struct {
	ObjectsCreated   int `json:"objects_created"`
	ObjectsUpdated   int `json:"objects_updated"`
	TagsCreated      int `json:"tags_created"`
	TagLinks         int `json:"tag_links"`
	RelationsCreated int `json:"relations_created"`
}

// ReadFile parses a fixture file.
func ReadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	fx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return fx, nil
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, err
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks required fields and duplicate object IDs.
func (fx *Fixture) Validate() error {
	var errs []error
	for i, tag := range fx.Tags {
		if tag.Name == "" {
			errs = append(errs, fmt.Errorf("tags[%d]: name is required", i))
		}
	}
	seen := make(map[string]bool, len(fx.Objects))
	for i, obj := range fx.Objects {
		switch {
		case obj.ID == "":
			errs = append(errs, fmt.Errorf("objects[%d]: id is required", i))
		case seen[obj.ID]:
			errs = append(errs, fmt.Errorf("objects[%d]: duplicate id %q", i, obj.ID))
		}
		seen[obj.ID] = true
	}
	for i, rel := range fx.Relations {
		if rel.Source == "" || rel.Target == "" || rel.Type == "" {
			errs = append(errs, fmt.Errorf("relations[%d]: source, target and type are required", i))
		}
	}
	return errors.Join(errs...)
}

// Load applies fx to db. Running it twice leaves the store unchanged apart
// from updated_at of the seeded objects.
func Load(ctx context.Context, db *store.Database, fx *Fixture) (*Report, error) {
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	report := &Report{}

	tags, err := tagsByName(ctx, db)
	if err != nil {
		return nil, err
	}
	ensureTag := func(name, color string) (string, error) {
		if id, ok := tags[name]; ok {
			return id, nil
		}
		tag, err := db.CreateTag(ctx, name, color)
		if err != nil {
			return "", err
		}
		tags[tag.Name] = tag.ID
		report.TagsCreated++
		return tag.ID, nil
	}

	for _, tag := range fx.Tags {
		if _, err := ensureTag(tag.Name, tag.Color); err != nil {
			return report, fmt.Errorf("seed tag %q: %w", tag.Name, err)
		}
	}

	for _, obj := range fx.Objects {
		_, created, err := db.UpsertObject(ctx, model.Object{
			ID:         obj.ID,
			Type:       obj.Type,
			Name:       obj.Name,
			Path:       obj.Path,
			Content:    obj.Content,
			Properties: obj.Properties,
		})
		if err != nil {
			return report, fmt.Errorf("seed object %q: %w", obj.ID, err)
		}
		if created {
			report.ObjectsCreated++
		} else {
			report.ObjectsUpdated++
		}

		for _, name := range obj.Tags {
			tagID, err := ensureTag(name, "")
			if err != nil {
				return report, fmt.Errorf("seed tag %q: %w", name, err)
			}
			if err := db.AttachTag(ctx, obj.ID, tagID); err != nil {
				return report, fmt.Errorf("tag object %q: %w", obj.ID, err)
			}
			report.TagLinks++
		}
	}

	for _, rel := range fx.Relations {
		exists, err := hasRelation(ctx, db, rel)
		if err != nil {
			return report, err
		}
		if exists {
			continue
		}
		r := model.Relation{SourceID: rel.Source, TargetID: rel.Target, Type: rel.Type}
		if rel.Data != nil {
			r.Data = rel.Data
		}
		if _, err := db.CreateRelation(ctx, r); err != nil {
			return report, fmt.Errorf("seed relation %s -> %s: %w", rel.Source, rel.Target, err)
		}
		report.RelationsCreated++
	}

	return report, nil
}

func tagsByName(ctx context.Context, db *store.Database) (map[string]string, error) {
	all, err := db.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(all))
	for _, tag := range all {
		byName[tag.Name] = tag.ID
	}
	return byName, nil
}

// hasRelation reports whether an edge with the same endpoints and type is
// already stored.
func hasRelation(ctx context.Context, db *store.Database, rel Relation) (bool, error) {
	var one int
	err := db.DB().QueryRowContext(ctx,
		"SELECT 1 FROM relations WHERE source_id = ? AND target_id = ? AND type = ? LIMIT 1",
		rel.Source, rel.Target, rel.Type).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup relation: %w", err)
	}
	return true, nil
}
