package plugin

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/divehq/dive/internal/slugs"
)

// The goldmark instance is configured once and is safe to share.
var (
	markdownOnce sync.Once
	markdownMD   goldmark.Markdown
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownMD = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		)
	})
	return markdownMD
}

// RenderMarkdown renders markdown content to HTML. Raw HTML in the source is
// omitted.
func RenderMarkdown(content any) (string, error) {
	src, err := contentText(content)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := markdown().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Heading is one entry of a markdown outline.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
	Line   int    `json:"line"` // 1-indexed
}

// Outline extracts the headings of markdown content.
func Outline(content string) []Heading {
	source := []byte(content)
	doc := markdown().Parser().Parse(text.NewReader(source))
	lineStarts := computeLineStarts(content)

	headings := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var sb strings.Builder
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		headingText := strings.TrimSpace(sb.String())
		if headingText == "" {
			return ast.WalkSkipChildren, nil
		}

		line := 1
		if heading.Lines().Len() > 0 {
			line = offsetToLine(lineStarts, heading.Lines().At(0).Start) + 1
		}
		headings = append(headings, Heading{
			Level:  heading.Level,
			Text:   headingText,
			Anchor: slugs.HeadingSlug(headingText),
			Line:   line,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func contentText(content any) (string, error) {
	switch c := content.(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	case []byte:
		return string(c), nil
	default:
		return "", fmt.Errorf("markdown content must be text, got %T", content)
	}
}

func computeLineStarts(content string) []int {
	starts := []int{0}
	for i, c := range content {
		if c == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offsetToLine(lineStarts []int, offset int) int {
	for i := len(lineStarts) - 1; i >= 0; i-- {
		if lineStarts[i] <= offset {
			return i
		}
	}
	return 0
}
