package plugin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/divehq/dive/internal/canvas"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()

	t.Run("duplicate name keeps first", func(t *testing.T) {
		err := r.Register(Plugin{Name: "markdown", Version: "9.9.9"})
		if !errors.Is(err, ErrDuplicatePlugin) {
			t.Fatalf("Register duplicate error = %v", err)
		}
		p, ok := r.Plugin("markdown")
		if !ok || p.Version != builtinVersion {
			t.Fatalf("markdown plugin = %+v", p)
		}
	})

	t.Run("views for type", func(t *testing.T) {
		tests := []struct {
			typ  string
			want []string
		}{
			{typ: "markdown", want: []string{"Markdown Editor"}},
			{typ: "text/markdown", want: []string{"Markdown Editor"}},
			{typ: "image/png", want: []string{"Image Viewer"}},
			{typ: "directory", want: []string{"File Browser"}},
			{typ: "unknown", want: nil},
		}
		for _, tt := range tests {
			t.Run(tt.typ, func(t *testing.T) {
				views := r.ViewsForType(tt.typ)
				if len(views) != len(tt.want) {
					t.Fatalf("ViewsForType(%q) = %+v", tt.typ, views)
				}
				for i, v := range views {
					if v.Name != tt.want[i] {
						t.Fatalf("view %d = %q, want %q", i, v.Name, tt.want[i])
					}
				}
			})
		}
	})

	t.Run("plugin for type", func(t *testing.T) {
		p, ok := r.PluginForType("application/x-canvas")
		if !ok || p.Name != "canvas" {
			t.Fatalf("PluginForType = %+v, %v", p, ok)
		}
		if _, ok := r.PluginForType("spreadsheet"); ok {
			t.Fatal("unexpected plugin for spreadsheet")
		}
	})

	t.Run("types", func(t *testing.T) {
		names := make(map[string]bool)
		for _, ot := range r.Types() {
			names[ot.Name] = true
		}
		for _, want := range []string{"markdown", "canvas", "image", "video", "history", "calendar", "directory"} {
			if !names[want] {
				t.Fatalf("type %q missing from %v", want, names)
			}
		}
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewDefaultRegistry()

	if err := r.Validate(ctx, "canvas", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","from":"a","to":"b"}]}`); !errors.Is(err, canvas.ErrInvalidDocument) {
		t.Fatalf("dangling edge error = %v", err)
	}
	if err := r.Validate(ctx, "canvas", map[string]any{"nodes": []any{}}); err != nil {
		t.Fatalf("valid canvas rejected: %v", err)
	}
	if err := r.Validate(ctx, "markdown", 42); err != nil {
		t.Fatalf("unvalidated type rejected: %v", err)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	r := NewDefaultRegistry()

	html, err := r.Render("markdown", "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{`<h1 id="title">Title</h1>`, "<table>", "<del>gone</del>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered html missing %q:\n%s", want, html)
		}
	}

	if _, err := r.Render("canvas", "{}"); !errors.Is(err, ErrNoRenderer) {
		t.Fatalf("canvas render error = %v", err)
	}
	if _, err := RenderMarkdown(map[string]any{}); err == nil {
		t.Fatal("expected error for non-text markdown content")
	}
}

func TestOutline(t *testing.T) {
	t.Parallel()

	content := "# Project Plan\n\nintro\n\n## Next: Steps\n\ntext\n\n#\n"
	got := Outline(content)
	if len(got) != 2 {
		t.Fatalf("Outline = %+v", got)
	}
	want := []Heading{
		{Level: 1, Text: "Project Plan", Anchor: "project-plan", Line: 1},
		{Level: 2, Text: "Next: Steps", Anchor: "next-steps", Line: 5},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heading %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
