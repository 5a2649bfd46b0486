// Package plugin holds the manifest of object types and views the client can
// present, plus server-side hooks plugins contribute for their types.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

var (
	// ErrDuplicatePlugin is returned when a plugin name is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")
	// ErrNoRenderer is returned when no plugin renders the requested type.
	ErrNoRenderer = errors.New("no renderer for type")
)

// ObjectType is a kind of object a plugin introduces.
type ObjectType struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// View is a presentation of objects. Supports lists object types or MIME
// types the view can display.
type View struct {
	Name     string   `json:"name"`
	Supports []string `json:"supports"`
}

// SupportsType reports whether the view displays objects of type t.
func (v View) SupportsType(t string) bool {
	return slices.Contains(v.Supports, t)
}

// RenderFunc renders object content to HTML.
type RenderFunc func(content any) (string, error)

// ValidateFunc checks content before it is written.
type ValidateFunc func(content any) error

// Plugin is one entry in the manifest.
type Plugin struct {
	Name    string       `json:"name"`
	Version string       `json:"version"`
	Types   []ObjectType `json:"types,omitempty"`
	Views   []View       `json:"views,omitempty"`

	Render   RenderFunc   `json:"-"`
	Validate ValidateFunc `json:"-"`
}

// Handles reports whether the plugin declares or views type t.
func (p Plugin) Handles(t string) bool {
	for _, ot := range p.Types {
		if ot.Name == t {
			return true
		}
	}
	for _, v := range p.Views {
		if v.SupportsType(t) {
			return true
		}
	}
	return false
}

// Registry holds plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	byName  map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds p. A second plugin with the same name is rejected and the
// first one kept.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name]; exists {
		slog.Warn("Plugin already registered", "plugin", p.Name)
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name)
	}
	r.byName[p.Name] = len(r.plugins)
	r.plugins = append(r.plugins, p)
	return nil
}

// Plugins returns every registered plugin in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.plugins)
}

// Plugin returns the plugin registered under name.
func (r *Registry) Plugin(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[name]
	if !ok {
		return Plugin{}, false
	}
	return r.plugins[i], true
}

// Types returns every declared object type, deduplicated by name.
func (r *Registry) Types() []ObjectType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []ObjectType
	for _, p := range r.plugins {
		for _, t := range p.Types {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			out = append(out, t)
		}
	}
	return out
}

// ViewsForType returns every view able to display type t.
func (r *Registry) ViewsForType(t string) []View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := []View{}
	for _, p := range r.plugins {
		for _, v := range p.Views {
			if v.SupportsType(t) {
				views = append(views, v)
			}
		}
	}
	return views
}

// PluginForType returns the first registered plugin that handles t.
func (r *Registry) PluginForType(t string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.Handles(t) {
			return p, true
		}
	}
	return Plugin{}, false
}

// Validate runs the validator of every plugin handling t. Types nobody
// validates are accepted.
func (r *Registry) Validate(ctx context.Context, t string, content any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.Validate == nil || !p.Handles(t) {
			continue
		}
		if err := p.Validate(content); err != nil {
			slog.DebugContext(ctx, "Content rejected", "plugin", p.Name, "type", t, "err", err)
			return err
		}
	}
	return nil
}

// Render renders content with the first plugin handling t that has a
// renderer.
func (r *Registry) Render(t string, content any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.Render != nil && p.Handles(t) {
			return p.Render(content)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoRenderer, t)
}
