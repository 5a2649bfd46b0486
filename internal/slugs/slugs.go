// Package slugs provides the slugification helpers used across dive.
//
// There are two strategies:
//   - Heading slugs: anchors for markdown headings in rendered output.
//   - File slugs: names for uploaded files, built on gosimple/slug.
package slugs

import (
	"path/filepath"
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
)

// HeadingSlug converts a heading text to a URL-friendly anchor.
func HeadingSlug(text string) string {
	var result strings.Builder
	prevDash := false

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '-' || r == '_' || r == ':':
			if !prevDash && result.Len() > 0 {
				result.WriteRune('-')
				prevDash = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}

// ComponentSlug converts a string to a slug safe for a single path component.
func ComponentSlug(s string) string {
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
	}
	return slugged
}

// FileName slugifies the stem of a file name and keeps its extension,
// lowercased. Directory components are dropped. It returns "" when nothing
// usable remains.
func FileName(name string) string {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	slugExt := strings.ToLower(goslug.Make(strings.TrimPrefix(ext, ".")))
	if stem == "" {
		// Dotfiles such as ".env" have no stem.
		stem, slugExt = strings.TrimPrefix(ext, "."), ""
	}
	slugStem := goslug.Make(stem)
	if slugStem == "" {
		return ""
	}
	if slugExt == "" {
		return slugStem
	}
	return slugStem + "." + slugExt
}
