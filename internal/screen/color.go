package screen

// ColorMode selects how a Color value is interpreted.
type ColorMode uint8

const (
	// ColorModeDefault is the terminal's own default color.
	ColorModeDefault ColorMode = iota
	// ColorModePalette is an indexed palette color (0-255).
	ColorModePalette
	// ColorModeRGB is a 24-bit true color.
	ColorModeRGB
)

// Color represents a terminal color.
// The zero value is the terminal default.
type Color struct {
	Mode    ColorMode
	Index   uint8
	R, G, B uint8
}

// ColorDefault is the terminal's default color.
var ColorDefault = Color{}

// The standard 16-color palette. Indices 0-7 are the normal colors,
// 8-15 the bright variants.
var (
	ColorBlack   = PaletteColor(0)
	ColorRed     = PaletteColor(1)
	ColorGreen   = PaletteColor(2)
	ColorYellow  = PaletteColor(3)
	ColorBlue    = PaletteColor(4)
	ColorMagenta = PaletteColor(5)
	ColorCyan    = PaletteColor(6)
	ColorWhite   = PaletteColor(7)

	ColorBrightBlack   = PaletteColor(8)
	ColorBrightRed     = PaletteColor(9)
	ColorBrightGreen   = PaletteColor(10)
	ColorBrightYellow  = PaletteColor(11)
	ColorBrightBlue    = PaletteColor(12)
	ColorBrightMagenta = PaletteColor(13)
	ColorBrightCyan    = PaletteColor(14)
	ColorBrightWhite   = PaletteColor(15)
)

// PaletteColor creates an indexed palette color.
func PaletteColor(index uint8) Color {
	return Color{Mode: ColorModePalette, Index: index}
}

// RGB creates a 24-bit true color.
func RGB(r, g, b uint8) Color {
	return Color{Mode: ColorModeRGB, R: r, G: g, B: b}
}

// IsDefault returns true if this is the terminal default color.
func (c Color) IsDefault() bool {
	return c.Mode == ColorModeDefault
}

// Equals returns true if two colors are identical.
func (c Color) Equals(other Color) bool {
	return c == other
}
