package ui

import (
	"os"
	"strconv"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth applies when stdout is not a terminal and $COLUMNS is unset.
const DefaultTermWidth = 120

// minTermWidth keeps tables readable in very narrow panes.
const minTermWidth = 40

// DisplayContext describes the output surface for tables and rendered markdown.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// NewDisplayContext inspects stdout. The width comes from the terminal, then
// $COLUMNS, then DefaultTermWidth.
func NewDisplayContext() *DisplayContext {
	fd := os.Stdout.Fd()
	d := &DisplayContext{IsTTY: term.IsTerminal(fd)}
	if d.IsTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			d.TermWidth = w
		}
	}
	if d.TermWidth == 0 {
		d.TermWidth = widthFromEnv(os.Getenv("COLUMNS"))
	}
	return d
}

// NewDisplayContextWithWidth returns a fixed-width context.
func NewDisplayContextWithWidth(width int) *DisplayContext {
	return &DisplayContext{TermWidth: width, IsTTY: true}
}

func widthFromEnv(v string) int {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return max(n, minTermWidth)
	}
	return DefaultTermWidth
}

// AvailableWidth returns the width left after leftMargin columns.
func (d *DisplayContext) AvailableWidth(leftMargin int) int {
	return max(d.TermWidth-leftMargin, 1)
}
