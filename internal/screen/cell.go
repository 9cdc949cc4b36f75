// Package screen provides the cell and buffer model for terminal rendering.
//
// A Buffer is a width x height grid of Cells. All coordinate-taking
// operations clamp or no-op on out-of-range input rather than failing;
// the renderer must never crash mid-frame on a stale coordinate.
package screen

import (
	"github.com/mattn/go-runewidth"
)

// Cell represents a single terminal cell.
type Cell struct {
	// Rune is the character to display.
	// A value of 0 indicates a continuation cell (for wide characters).
	Rune rune

	// Width is the display width of this cell.
	// 0 for continuation cells, 1 for normal chars, 2 for wide CJK chars.
	Width int

	// Style is the visual style for this cell.
	Style Style
}

// EmptyCell returns an empty cell with default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1}
}

// NewCell creates a cell with the given rune and default style.
func NewCell(r rune) Cell {
	return Cell{Rune: r, Width: RuneWidth(r)}
}

// NewStyledCell creates a cell with the given rune and style.
func NewStyledCell(r rune, style Style) Cell {
	return Cell{Rune: r, Width: RuneWidth(r), Style: style}
}

// ContinuationCell returns the trailing cell of a wide character.
func ContinuationCell() Cell {
	return Cell{}
}

// WithStyle returns a new cell with the given style.
func (c Cell) WithStyle(style Style) Cell {
	c.Style = style
	return c
}

// IsContinuation returns true if this is the second cell of a wide character.
func (c Cell) IsContinuation() bool {
	return c.Rune == 0 && c.Width == 0
}

// Equals returns true if two cells are identical.
func (c Cell) Equals(other Cell) bool {
	return c == other
}

// RuneWidth returns the display width of a rune:
// 0 for control characters, 1 for normal characters, 2 for wide characters.
func RuneWidth(r rune) int {
	if r < 32 || r == 0x7F {
		return 0
	}
	return runewidth.RuneWidth(r)
}
