package object

import (
	"fmt"
	"strings"
)

// ID is a parsed composite identifier of the form "<provider>:<inner>".
// Inner may itself contain colons.
type ID struct {
	Provider string
	Inner    string
}

// NewID builds a composite ID.
func NewID(provider, inner string) ID {
	return ID{Provider: provider, Inner: inner}
}

// ParseID splits s on its first colon. A missing colon, an empty provider or
// an empty inner part is reported as ErrInvalidID.
func ParseID(s string) (ID, error) {
	provider, inner, ok := strings.Cut(s, ":")
	if !ok {
		return ID{}, fmt.Errorf("%w: %q has no provider prefix", ErrInvalidID, s)
	}
	if provider == "" {
		return ID{}, fmt.Errorf("%w: %q has an empty provider", ErrInvalidID, s)
	}
	if inner == "" {
		return ID{}, fmt.Errorf("%w: %q has an empty inner id", ErrInvalidID, s)
	}
	return ID{Provider: provider, Inner: inner}, nil
}

// String returns the composite form.
func (id ID) String() string {
	return id.Provider + ":" + id.Inner
}
