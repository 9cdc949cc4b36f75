package render

import (
	"termtask/internal/screen"
)

// Point is a cell coordinate.
type Point struct {
	X, Y int
}

// Diff describes the changes needed to bring the displayed screen in
// line with the draw buffer. It is either a full refresh or a set of
// changed cells keyed by coordinate, so repeated writes to the same
// cell collapse to the latest value.
type Diff struct {
	Full  bool
	Cells map[Point]screen.Cell
}

// IsEmpty returns true if the diff requires no output.
func (d Diff) IsEmpty() bool {
	return !d.Full && len(d.Cells) == 0
}

// ComputeDiff compares two equally sized buffers and returns the cells
// of back that differ from front. The full O(width*height) walk is
// deliberate at text-terminal scales; batching of the resulting writes
// is where the time goes, not the compare.
func ComputeDiff(front, back *screen.Buffer) Diff {
	diff := Diff{Cells: make(map[Point]screen.Cell)}

	w, h := back.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell := back.Get(x, y)
			if !cell.Equals(front.Get(x, y)) {
				diff.Cells[Point{X: x, Y: y}] = cell
			}
		}
	}
	return diff
}

// run is a maximal horizontal range of adjacent changed cells in one
// row, emitted as a single cursor move plus one batched write.
type run struct {
	y     int
	x     int
	cells []screen.Cell
}

// runsByRow groups the diff's changed cells into horizontal runs,
// ordered top to bottom, left to right.
func (d Diff) runsByRow(back *screen.Buffer) []run {
	_, h := back.Size()
	var runs []run

	byRow := make(map[int][]int, h)
	for p := range d.Cells {
		byRow[p.Y] = append(byRow[p.Y], p.X)
	}

	for y := 0; y < h; y++ {
		xs, ok := byRow[y]
		if !ok {
			continue
		}
		sortInts(xs)

		var cur *run
		for _, x := range xs {
			if cur != nil && x == cur.x+len(cur.cells) {
				cur.cells = append(cur.cells, d.Cells[Point{X: x, Y: y}])
				continue
			}
			runs = append(runs, run{y: y, x: x})
			cur = &runs[len(runs)-1]
			cur.cells = append(cur.cells, d.Cells[Point{X: x, Y: y}])
		}
	}
	return runs
}

func sortInts(xs []int) {
	// Insertion sort; rows rarely have many disjoint changes.
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
