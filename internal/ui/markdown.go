package ui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// MarkdownRenderMargin is the left margin used for terminal markdown rendering.
const MarkdownRenderMargin = 2

const defaultCodeTheme = "monokai"

var markdownCodeTheme = defaultCodeTheme

// ConfigureMarkdownCodeTheme selects the chroma theme for fenced code blocks.
// Unknown names fall back to the default theme.
func ConfigureMarkdownCodeTheme(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := styles.Registry[name]; !ok {
		name = defaultCodeTheme
	}
	markdownCodeTheme = name
}

// RenderMarkdown renders a note for the terminal with the configured accent
// and code theme. A leading YAML frontmatter block is dropped; properties are
// shown separately by the caller.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	rendered, err := r.Render(stripFrontmatter(content))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// stripFrontmatter removes a "---" delimited block at the very top of s.
// An unterminated block is left alone.
func stripFrontmatter(s string) string {
	rest, ok := strings.CutPrefix(s, "---\n")
	if !ok {
		return s
	}
	if strings.HasPrefix(rest, "---\n") {
		return rest[len("---\n"):]
	}
	if i := strings.Index(rest, "\n---\n"); i >= 0 {
		return rest[i+len("\n---\n"):]
	}
	if strings.HasSuffix(rest, "\n---") {
		return ""
	}
	return s
}

func markdownStyle() ansi.StyleConfig {
	muted := mdStringPtr("8")
	code := mdStringPtr("244")
	var accent *string
	if color, ok := AccentColor(); ok {
		accent = mdStringPtr(color)
	}

	// H1..H6 keep their markdown prefix; the top two levels are underlined.
	var headings [6]ansi.StyleBlock
	for i := range headings {
		headings[i].Prefix = strings.Repeat("#", i+1) + " "
		if i < 2 {
			headings[i].Underline = mdBoolPtr(true)
		}
	}
	headings[5].Bold = mdBoolPtr(false)

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockPrefix: "\n", BlockSuffix: "\n"},
			Margin:         mdUintPtr(MarkdownRenderMargin),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: muted},
			Indent:         mdUintPtr(1),
			IndentToken:    mdStringPtr("│ "),
		},
		List: ansi.StyleList{LevelIndent: 2},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockSuffix: "\n", Color: accent, Bold: mdBoolPtr(true)},
		},
		H1:             headings[0],
		H2:             headings[1],
		H3:             headings[2],
		H4:             headings[3],
		H5:             headings[4],
		H6:             headings[5],
		Strikethrough:  ansi.StylePrimitive{CrossedOut: mdBoolPtr(true)},
		Emph:           ansi.StylePrimitive{Italic: mdBoolPtr(true)},
		Strong:         ansi.StylePrimitive{Bold: mdBoolPtr(true)},
		HorizontalRule: ansi.StylePrimitive{Color: muted, Format: "\n--------\n"},
		Item:           ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration:    ansi.StylePrimitive{BlockPrefix: ". "},
		Task:           ansi.StyleTask{Ticked: "[x] ", Unticked: "[ ] "},
		Link:           ansi.StylePrimitive{Color: muted, Underline: mdBoolPtr(true)},
		LinkText:       ansi.StylePrimitive{Color: muted, Bold: mdBoolPtr(true)},
		Image:          ansi.StylePrimitive{Underline: mdBoolPtr(true)},
		ImageText:      ansi.StylePrimitive{Color: muted, Format: "Image: {{.text}} ->"},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "`", Suffix: "`", Color: code},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{Color: code},
				Margin:         mdUintPtr(MarkdownRenderMargin),
			},
			Theme: markdownCodeTheme,
		},
		Table: ansi.StyleTable{
			CenterSeparator: mdStringPtr("│"),
			ColumnSeparator: mdStringPtr("│"),
			RowSeparator:    mdStringPtr("─"),
		},
		DefinitionDescription: ansi.StylePrimitive{BlockPrefix: "\n- "},
	}
}

func mdBoolPtr(v bool) *bool { return &v }

func mdStringPtr(v string) *string { return &v }

func mdUintPtr(v uint) *uint { return &v }
