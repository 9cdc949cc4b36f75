package render

import (
	"testing"

	"termtask/internal/screen"
)

func TestComputeDiffEmpty(t *testing.T) {
	a := screen.NewBuffer(10, 4)
	b := screen.NewBuffer(10, 4)

	diff := ComputeDiff(a, b)
	if !diff.IsEmpty() {
		t.Errorf("identical buffers should diff empty, got %d cells", len(diff.Cells))
	}
}

func TestComputeDiffReplay(t *testing.T) {
	// Replaying only the reported changed cells onto a copy of the
	// front buffer must reproduce the back buffer exactly.
	front := screen.NewBuffer(20, 6)
	front.SetText(0, 0, "hello world", screen.DefaultStyle())
	front.SetText(3, 2, "unchanged", screen.DefaultStyle())

	back := front.Clone()
	back.SetText(0, 0, "hello there", screen.DefaultStyle())
	back.SetText(5, 4, "new row", screen.DefaultStyle().Bold())
	back.ClearRegion(3, 2, 4, 1)

	diff := ComputeDiff(front, back)

	replayed := front.Clone()
	for p, cell := range diff.Cells {
		replayed.Set(p.X, p.Y, cell)
	}
	if !replayed.Equals(back) {
		t.Error("replaying the diff onto front did not reproduce back")
	}
}

func TestComputeDiffStyleOnlyChange(t *testing.T) {
	front := screen.NewBuffer(5, 1)
	front.SetText(0, 0, "abc", screen.DefaultStyle())

	back := front.Clone()
	back.SetText(0, 0, "abc", screen.DefaultStyle().Underline())

	diff := ComputeDiff(front, back)
	if len(diff.Cells) != 3 {
		t.Errorf("style-only change should report 3 cells, got %d", len(diff.Cells))
	}
}

func TestRunsByRowBatching(t *testing.T) {
	front := screen.NewBuffer(20, 3)
	back := front.Clone()

	// Row 0: one contiguous run of 5 cells plus a lone cell.
	back.SetText(2, 0, "abcde", screen.DefaultStyle())
	back.Set(10, 0, screen.NewCell('z'))
	// Row 2: a single run.
	back.SetText(0, 2, "xy", screen.DefaultStyle())

	diff := ComputeDiff(front, back)
	runs := diff.runsByRow(back)

	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].y != 0 || runs[0].x != 2 || len(runs[0].cells) != 5 {
		t.Errorf("run 0 = y%d x%d len%d, want y0 x2 len5", runs[0].y, runs[0].x, len(runs[0].cells))
	}
	if runs[1].y != 0 || runs[1].x != 10 || len(runs[1].cells) != 1 {
		t.Errorf("run 1 = y%d x%d len%d, want y0 x10 len1", runs[1].y, runs[1].x, len(runs[1].cells))
	}
	if runs[2].y != 2 || runs[2].x != 0 || len(runs[2].cells) != 2 {
		t.Errorf("run 2 = y%d x%d len%d, want y2 x0 len2", runs[2].y, runs[2].x, len(runs[2].cells))
	}
}

func TestDiffLastWriteWins(t *testing.T) {
	front := screen.NewBuffer(5, 1)
	back := front.Clone()
	back.Set(1, 0, screen.NewCell('a'))
	back.Set(1, 0, screen.NewCell('b'))

	diff := ComputeDiff(front, back)
	if got := diff.Cells[Point{X: 1, Y: 0}]; got.Rune != 'b' {
		t.Errorf("diff cell = %q, want 'b'", got.Rune)
	}
}
