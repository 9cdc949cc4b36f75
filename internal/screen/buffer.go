package screen

// Buffer is a width x height grid of cells, row-major, mutable in place.
//
// Out-of-range reads return an empty cell and out-of-range writes are
// no-ops. Resizing preserves the overlapping top-left region.
type Buffer struct {
	width, height int
	cells         []Cell
}

// NewBuffer creates a buffer of the given size filled with empty cells.
// Negative dimensions are treated as zero.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	b := &Buffer{width: width, height: height}
	b.cells = make([]Cell, width*height)
	b.Clear()
	return b
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (width, height int) {
	return b.width, b.height
}

// Width returns the buffer width.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height.
func (b *Buffer) Height() int { return b.height }

func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Get returns the cell at (x, y), or an empty cell when out of range.
func (b *Buffer) Get(x, y int) Cell {
	if !b.inBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[y*b.width+x]
}

// Set writes a cell at (x, y). Out-of-range writes are no-ops.
func (b *Buffer) Set(x, y int, cell Cell) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y*b.width+x] = cell
}

// SetText writes a string starting at (x, y) with the given style.
// Text is truncated at the right edge and never wraps. Wide characters
// occupy two cells; the second is a continuation cell.
func (b *Buffer) SetText(x, y int, text string, style Style) {
	if y < 0 || y >= b.height {
		return
	}
	col := x
	for _, r := range text {
		if col >= b.width {
			break
		}
		w := RuneWidth(r)
		if w == 0 {
			continue
		}
		// A wide character that would be cut in half at the edge
		// is dropped rather than partially drawn.
		if w == 2 && col+1 >= b.width {
			break
		}
		if col >= 0 {
			b.cells[y*b.width+col] = Cell{Rune: r, Width: w, Style: style}
		}
		col++
		if w == 2 {
			if col >= 0 && col < b.width {
				b.cells[y*b.width+col] = ContinuationCell()
			}
			col++
		}
	}
}

// Fill sets every cell in the given rectangle to cell.
// The rectangle is clipped to the buffer bounds.
func (b *Buffer) Fill(x, y, w, h int, cell Cell) {
	for row := y; row < y+h; row++ {
		if row < 0 || row >= b.height {
			continue
		}
		for col := x; col < x+w; col++ {
			if col < 0 || col >= b.width {
				continue
			}
			b.cells[row*b.width+col] = cell
		}
	}
}

// Clear resets every cell to an empty cell.
func (b *Buffer) Clear() {
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
}

// ClearRegion resets a rectangular region to empty cells.
func (b *Buffer) ClearRegion(x, y, w, h int) {
	b.Fill(x, y, w, h, EmptyCell())
}

// Resize changes the buffer dimensions, preserving the overlapping
// top-left region and filling new cells with empty cells.
func (b *Buffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width == b.width && height == b.height {
		return
	}

	old := b.cells
	oldWidth, oldHeight := b.width, b.height

	b.width, b.height = width, height
	b.cells = make([]Cell, width*height)
	b.Clear()

	copyWidth := min(oldWidth, width)
	copyHeight := min(oldHeight, height)
	for y := 0; y < copyHeight; y++ {
		copy(b.cells[y*width:y*width+copyWidth], old[y*oldWidth:y*oldWidth+copyWidth])
	}
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{width: b.width, height: b.height}
	c.cells = make([]Cell, len(b.cells))
	copy(c.cells, b.cells)
	return c
}

// Equals returns true if two buffers have identical size and content.
func (b *Buffer) Equals(other *Buffer) bool {
	if b.width != other.width || b.height != other.height {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}
