package model

// Relation is a directed, typed edge between two object IDs.
type Relation struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`

	// Type labels the edge, e.g. "author", "related", "parent".
	Type string `json:"type"`

	// Data is an optional payload such as canvas coordinates.
	Data any `json:"data,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// Relation directions relative to the object they were fetched for.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// ObjectSummary is the minimal view of an object shown next to a relation.
type ObjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// RelationView is a relation enriched with the object on its other end.
type RelationView struct {
	Relation
	OtherObject ObjectSummary `json:"other_object"`
	Direction   string        `json:"direction"`
}
