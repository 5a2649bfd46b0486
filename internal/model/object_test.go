package model

import "testing"

func TestShadowIDs(t *testing.T) {
	tests := []struct {
		id     string
		shadow bool
		path   string
	}{
		{"filesystem:/home/u/notes.md", true, "/home/u/notes.md"},
		{"filesystem:C:/Users/u/notes.md", true, "C:/Users/u/notes.md"},
		{"01HXYZ", false, "01HXYZ"},
		{"database:filesystem:/x", false, "database:filesystem:/x"},
	}
	for _, tc := range tests {
		if got := IsShadowID(tc.id); got != tc.shadow {
			t.Errorf("IsShadowID(%q) = %v, want %v", tc.id, got, tc.shadow)
		}
		if got := ShadowPath(tc.id); got != tc.path {
			t.Errorf("ShadowPath(%q) = %q, want %q", tc.id, got, tc.path)
		}
		if got := (Object{ID: tc.id}).IsShadow(); got != tc.shadow {
			t.Errorf("Object{%q}.IsShadow() = %v", tc.id, got)
		}
	}
}
