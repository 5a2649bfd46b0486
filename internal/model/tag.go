package model

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3b82f6"

// Tag is a named label that can be attached to any object.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}
