// Package canvas models infinite-canvas documents: a pan/zoom viewport over
// positioned nodes joined by edges.
package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Zoom bounds for a Viewport.
const (
	MinZoom = 0.1
	MaxZoom = 8.0
)

// ErrInvalidDocument wraps every validation failure.
var ErrInvalidDocument = errors.New("invalid canvas document")

// Point is a position in screen or world coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport maps world coordinates onto the screen. X and Y are the screen
// offset of the world origin.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// NewViewport returns the identity viewport.
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// Pan shifts the viewport by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.X += dx
	v.Y += dy
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(z float64) {
	v.Zoom = clampZoom(z)
}

// ZoomAt scales the zoom by factor while keeping the world point under the
// screen position anchor fixed.
func (v *Viewport) ZoomAt(factor float64, anchor Point) {
	world := v.ScreenToWorld(anchor)
	v.SetZoom(v.zoom() * factor)
	v.X = anchor.X - world.X*v.Zoom
	v.Y = anchor.Y - world.Y*v.Zoom
}

// ScreenToWorld converts a screen position to world coordinates.
func (v Viewport) ScreenToWorld(p Point) Point {
	z := v.zoom()
	return Point{X: (p.X - v.X) / z, Y: (p.Y - v.Y) / z}
}

// WorldToScreen converts a world position to screen coordinates.
func (v Viewport) WorldToScreen(p Point) Point {
	z := v.zoom()
	return Point{X: p.X*z + v.X, Y: p.Y*z + v.Y}
}

// zoom treats an unset zoom as 1 so zero-value viewports stay usable.
func (v Viewport) zoom() float64 {
	if v.Zoom == 0 {
		return 1
	}
	return v.Zoom
}

func clampZoom(z float64) float64 {
	return min(max(z, MinZoom), MaxZoom)
}

// Node is a box on the canvas, optionally embedding another object.
type Node struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Text     string  `json:"text,omitempty"`
	ObjectID string  `json:"object_id,omitempty"`
}

// Edge connects two nodes.
type Edge struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Document is the content of a canvas object.
type Document struct {
	Viewport Viewport `json:"viewport"`
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
}

// New returns an empty document with the identity viewport.
func New() Document {
	return Document{Viewport: NewViewport(), Nodes: []Node{}, Edges: []Edge{}}
}

// Decode reads a document from object content, which is either JSON text or
// an already-decoded JSON value. Nil content yields an empty document.
func Decode(content any) (Document, error) {
	var raw []byte
	switch c := content.(type) {
	case nil:
		return New(), nil
	case string:
		raw = []byte(c)
	case []byte:
		raw = c
	case json.RawMessage:
		raw = c
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		raw = b
	}

	doc := New()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Viewport.Zoom == 0 {
		doc.Viewport.Zoom = 1
	}
	return doc, nil
}

// Validate checks that node IDs are unique and non-empty, that every edge
// joins two existing nodes, and that the zoom is in range.
func (d Document) Validate() error {
	if z := d.Viewport.Zoom; z != 0 && (z < MinZoom || z > MaxZoom) {
		return fmt.Errorf("%w: zoom %g outside [%g, %g]", ErrInvalidDocument, z, MinZoom, MaxZoom)
	}

	nodes := make(map[string]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidDocument, i)
		}
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidDocument, n.ID)
		}
		nodes[n.ID] = struct{}{}
	}

	for i, e := range d.Edges {
		if _, ok := nodes[e.From]; !ok {
			return fmt.Errorf("%w: edge %d starts at unknown node %q", ErrInvalidDocument, i, e.From)
		}
		if _, ok := nodes[e.To]; !ok {
			return fmt.Errorf("%w: edge %d ends at unknown node %q", ErrInvalidDocument, i, e.To)
		}
	}
	return nil
}

// Bounds returns the world-space bounding box of all nodes. ok is false for
// an empty document.
func (d Document) Bounds() (minPt, maxPt Point, ok bool) {
	for i, n := range d.Nodes {
		right, bottom := n.X+n.Width, n.Y+n.Height
		if i == 0 {
			minPt, maxPt = Point{n.X, n.Y}, Point{right, bottom}
			continue
		}
		minPt.X, minPt.Y = min(minPt.X, n.X), min(minPt.Y, n.Y)
		maxPt.X, maxPt.Y = max(maxPt.X, right), max(maxPt.Y, bottom)
	}
	return minPt, maxPt, len(d.Nodes) > 0
}
