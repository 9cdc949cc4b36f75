// Package layout partitions the terminal area into the fixed bands of
// the interface: header, content, status and command line.
package layout

// Kind identifies a screen region.
type Kind int

const (
	Header Kind = iota
	Content
	Status
	Command
)

// String returns the region name.
func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case Content:
		return "content"
	case Status:
		return "status"
	case Command:
		return "command"
	default:
		return "unknown"
	}
}

// Region is an immutable screen rectangle.
type Region struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the point lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Regions holds the four bands of the interface. The bands never
// overlap and tile the terminal top to bottom; content takes the
// vertical space left over by the fixed bands, floored at zero.
type Regions struct {
	Header  Region
	Content Region
	Status  Region
	Command Region
}

// Get returns the region for a kind.
func (r Regions) Get(kind Kind) Region {
	switch kind {
	case Header:
		return r.Header
	case Content:
		return r.Content
	case Status:
		return r.Status
	case Command:
		return r.Command
	default:
		return Region{}
	}
}

// Layout computes the band rectangles for a terminal of the given
// size. Pure function; recomputed on every resize.
func Layout(width, height, headerHeight, statusHeight, commandHeight int) Regions {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	headerHeight = clampBand(headerHeight, height)
	contentHeight := height - headerHeight - statusHeight - commandHeight
	if contentHeight < 0 {
		contentHeight = 0
	}
	// Fixed bands below content are themselves clamped to whatever
	// vertical space remains, in order.
	statusHeight = clampBand(statusHeight, height-headerHeight-contentHeight)
	commandHeight = clampBand(commandHeight, height-headerHeight-contentHeight-statusHeight)

	y := 0
	header := Region{X: 0, Y: y, Width: width, Height: headerHeight}
	y += headerHeight
	content := Region{X: 0, Y: y, Width: width, Height: contentHeight}
	y += contentHeight
	status := Region{X: 0, Y: y, Width: width, Height: statusHeight}
	y += statusHeight
	command := Region{X: 0, Y: y, Width: width, Height: commandHeight}

	return Regions{Header: header, Content: content, Status: status, Command: command}
}

func clampBand(h, available int) int {
	if h < 0 {
		return 0
	}
	if available < 0 {
		return 0
	}
	if h > available {
		return available
	}
	return h
}
