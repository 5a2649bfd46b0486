package workspace

import (
	"context"
	"fmt"

	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/plugin"
)

// Rendered is the HTML form of a record.
type Rendered struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	HTML    string           `json:"html"`
	Outline []plugin.Heading `json:"outline,omitempty"`
}

// Render renders a record with the plugin owning its type.
func (w *Workspace) Render(ctx context.Context, id string) (*Rendered, error) {
	res, err := w.Objects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	typ := renderType(res)
	html, err := w.Plugins.Render(typ, res.Content)
	if err != nil {
		return nil, err
	}

	out := &Rendered{ID: res.ID, Type: typ, HTML: html}
	if text, ok := res.Content.(string); ok && typ == "markdown" {
		out.Outline = plugin.Outline(text)
	}
	return out, nil
}

// renderType maps plain files to a renderable type by extension.
func renderType(res *object.Result) string {
	if res.Type != "file" {
		return res.Type
	}
	if isMarkdown(res.Name) {
		return "markdown"
	}
	if mt, ok := res.Properties["mime"].(string); ok && mt != "" {
		return mt
	}
	return res.Type
}

// Summary describes the workspace for health checks and `dive stats`.
type Summary struct {
	Providers  []string `json:"providers"`
	StorageDir string   `json:"storage_dir"`
	Objects    int      `json:"objects"`
	Shadows    int      `json:"shadows"`
	Tags       int      `json:"tags"`
	Links      int      `json:"tag_links"`
	Relations  int      `json:"relations"`
}

// Summarize collects counts from the metadata store.
func (w *Workspace) Summarize(ctx context.Context) (*Summary, error) {
	stats, err := w.Store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	return &Summary{
		Providers:  w.Objects.Names(),
		StorageDir: w.Files.Root(),
		Objects:    stats.ObjectCount,
		Shadows:    stats.ShadowCount,
		Tags:       stats.TagCount,
		Links:      stats.LinkCount,
		Relations:  stats.RelationCount,
	}, nil
}
