package render

import (
	"bytes"
	"strconv"

	"termtask/internal/screen"
)

// ANSI/VT control sequences used by the renderer.
const (
	ansiReset      = "\x1b[0m"
	ansiClear      = "\x1b[2J"
	ansiHome       = "\x1b[H"
	ansiShowCursor = "\x1b[?25h"
	ansiHideCursor = "\x1b[?25l"
)

// writeCursorMove emits a CUP sequence for the given zero-based
// screen coordinates. The terminal is one-based.
func writeCursorMove(buf *bytes.Buffer, x, y int) {
	buf.WriteString("\x1b[")
	buf.WriteString(strconv.Itoa(y + 1))
	buf.WriteByte(';')
	buf.WriteString(strconv.Itoa(x + 1))
	buf.WriteByte('H')
}

// writeStyle emits one SGR sequence selecting the given style.
// It always starts from a reset so no prior state leaks in.
func writeStyle(buf *bytes.Buffer, style screen.Style) {
	buf.WriteString("\x1b[0")

	if style.Attributes.Has(screen.AttrBold) {
		buf.WriteString(";1")
	}
	if style.Attributes.Has(screen.AttrDim) {
		buf.WriteString(";2")
	}
	if style.Attributes.Has(screen.AttrItalic) {
		buf.WriteString(";3")
	}
	if style.Attributes.Has(screen.AttrUnderline) {
		buf.WriteString(";4")
	}
	if style.Attributes.Has(screen.AttrReverse) {
		buf.WriteString(";7")
	}

	writeColor(buf, style.Foreground, false)
	writeColor(buf, style.Background, true)

	buf.WriteByte('m')
}

// writeColor appends the SGR parameters for one color.
// Palette indices 0-7 map to the named colors, 8-15 to the bright
// variants, anything above to extended 256-color selection.
func writeColor(buf *bytes.Buffer, c screen.Color, background bool) {
	base := 30
	if background {
		base = 40
	}

	switch c.Mode {
	case screen.ColorModeDefault:
		// A reset was already emitted; default needs no parameter.
	case screen.ColorModePalette:
		buf.WriteByte(';')
		switch {
		case c.Index < 8:
			buf.WriteString(strconv.Itoa(base + int(c.Index)))
		case c.Index < 16:
			buf.WriteString(strconv.Itoa(base + 60 + int(c.Index) - 8))
		default:
			buf.WriteString(strconv.Itoa(base + 8))
			buf.WriteString(";5;")
			buf.WriteString(strconv.Itoa(int(c.Index)))
		}
	case screen.ColorModeRGB:
		buf.WriteByte(';')
		buf.WriteString(strconv.Itoa(base + 8))
		buf.WriteString(";2;")
		buf.WriteString(strconv.Itoa(int(c.R)))
		buf.WriteByte(';')
		buf.WriteString(strconv.Itoa(int(c.G)))
		buf.WriteByte(';')
		buf.WriteString(strconv.Itoa(int(c.B)))
	}
}
