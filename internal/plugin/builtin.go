package plugin

import (
	"github.com/divehq/dive/internal/canvas"
)

const builtinVersion = "0.0.1"

// Builtins returns the plugins shipped with dive.
func Builtins() []Plugin {
	return []Plugin{
		{
			Name:    "markdown",
			Version: builtinVersion,
			Types:   []ObjectType{{Name: "markdown", Icon: "file-text"}},
			Views:   []View{{Name: "Markdown Editor", Supports: []string{"markdown", "text/markdown"}}},
			Render:  RenderMarkdown,
		},
		{
			Name:     "canvas",
			Version:  builtinVersion,
			Types:    []ObjectType{{Name: "canvas", Icon: "layout"}},
			Views:    []View{{Name: "Infinite Canvas", Supports: []string{"canvas", "application/x-canvas"}}},
			Validate: validateCanvas,
		},
		{
			Name:    "image",
			Version: builtinVersion,
			Types:   []ObjectType{{Name: "image", Icon: "image"}},
			Views:   []View{{Name: "Image Viewer", Supports: []string{"image", "image/jpeg", "image/png", "image/gif"}}},
		},
		{
			Name:    "video",
			Version: builtinVersion,
			Types:   []ObjectType{{Name: "video", Icon: "film"}},
			Views:   []View{{Name: "Video Player", Supports: []string{"video", "video/mp4", "video/webm"}}},
		},
		{
			Name:    "history",
			Version: builtinVersion,
			Types:   []ObjectType{{Name: "history", Icon: "clock"}},
			Views:   []View{{Name: "History", Supports: []string{"history"}}},
		},
		{
			Name:    "calendar",
			Version: builtinVersion,
			Types:   []ObjectType{{Name: "calendar", Icon: "calendar"}},
			Views:   []View{{Name: "Calendar", Supports: []string{"calendar"}}},
		},
		{
			Name:    "file-browser",
			Version: builtinVersion,
			Types:   []ObjectType{{Name: "directory", Icon: "folder"}},
			Views:   []View{{Name: "File Browser", Supports: []string{"directory"}}},
		},
	}
}

// NewDefaultRegistry returns a registry with the built-in plugins.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range Builtins() {
		_ = r.Register(p)
	}
	return r
}

func validateCanvas(content any) error {
	doc, err := canvas.Decode(content)
	if err != nil {
		return err
	}
	return doc.Validate()
}
