package canvas

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestViewport(t *testing.T) {
	t.Parallel()

	t.Run("pan accumulates", func(t *testing.T) {
		v := NewViewport()
		v.Pan(10, -5)
		v.Pan(2, 3)
		if v.X != 12 || v.Y != -2 {
			t.Fatalf("viewport = %+v", v)
		}
	})

	t.Run("zoom clamps", func(t *testing.T) {
		tests := []struct {
			in, want float64
		}{
			{in: 2, want: 2},
			{in: 0.01, want: MinZoom},
			{in: -1, want: MinZoom},
			{in: 100, want: MaxZoom},
		}
		for _, tt := range tests {
			v := NewViewport()
			v.SetZoom(tt.in)
			if v.Zoom != tt.want {
				t.Fatalf("SetZoom(%g) = %g, want %g", tt.in, v.Zoom, tt.want)
			}
		}
	})

	t.Run("screen and world round trip", func(t *testing.T) {
		v := Viewport{X: 40, Y: -20, Zoom: 2.5}
		world := Point{X: 3, Y: 7}
		screen := v.WorldToScreen(world)
		if !approx(screen.X, 47.5) || !approx(screen.Y, -2.5) {
			t.Fatalf("WorldToScreen = %+v", screen)
		}
		back := v.ScreenToWorld(screen)
		if !approx(back.X, world.X) || !approx(back.Y, world.Y) {
			t.Fatalf("ScreenToWorld = %+v", back)
		}
	})

	t.Run("zoom at keeps anchor fixed", func(t *testing.T) {
		v := Viewport{X: 10, Y: 10, Zoom: 1}
		anchor := Point{X: 110, Y: 60}
		before := v.ScreenToWorld(anchor)
		v.ZoomAt(2, anchor)
		after := v.ScreenToWorld(anchor)
		if v.Zoom != 2 || !approx(before.X, after.X) || !approx(before.Y, after.Y) {
			t.Fatalf("anchor moved: %+v -> %+v (viewport %+v)", before, after, v)
		}
	})
}

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content any
		wantErr bool
		nodes   int
	}{
		{name: "nil is empty", content: nil},
		{
			name:    "json text",
			content: `{"viewport":{"x":1,"y":2,"zoom":1.5},"nodes":[{"id":"a","x":0,"y":0},{"id":"b","x":5,"y":5}],"edges":[{"id":"e","from":"a","to":"b"}]}`,
			nodes:   2,
		},
		{
			name: "decoded map",
			content: map[string]any{
				"nodes": []any{map[string]any{"id": "only", "x": 1.0, "y": 1.0}},
			},
			nodes: 1,
		},
		{name: "malformed json", content: `{"nodes":`, wantErr: true},
		{
			name:    "dangling edge",
			content: `{"nodes":[{"id":"a"}],"edges":[{"id":"e","from":"a","to":"ghost"}]}`,
			wantErr: true,
		},
		{
			name:    "duplicate node",
			content: `{"nodes":[{"id":"a"},{"id":"a"}]}`,
			wantErr: true,
		},
		{
			name:    "zoom out of range",
			content: `{"viewport":{"zoom":20}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(tt.content)
			if err == nil {
				err = doc.Validate()
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDocument) {
					t.Fatalf("error = %v, want ErrInvalidDocument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(doc.Nodes) != tt.nodes {
				t.Fatalf("nodes = %d, want %d", len(doc.Nodes), tt.nodes)
			}
			if doc.Viewport.Zoom == 0 {
				t.Fatal("zoom left unset")
			}
		})
	}
}

func TestBounds(t *testing.T) {
	t.Parallel()

	if _, _, ok := New().Bounds(); ok {
		t.Fatal("empty document reported bounds")
	}
	doc := Document{Nodes: []Node{
		{ID: "a", X: -10, Y: 5, Width: 20, Height: 10},
		{ID: "b", X: 30, Y: -4, Width: 5, Height: 5},
	}}
	lo, hi, ok := doc.Bounds()
	if !ok || lo != (Point{-10, -4}) || hi != (Point{35, 15}) {
		t.Fatalf("Bounds = %+v %+v %v", lo, hi, ok)
	}
}
