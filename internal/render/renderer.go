// Package render implements differential terminal rendering.
//
// A Renderer owns two buffers: front (last painted) and back (being
// drawn). Render computes the cells that changed, batches adjacent
// changes in each row into runs, and emits one cursor move plus one
// write per run. A full repaint is used after resize or on request.
package render

import (
	"bytes"
	"io"
	"sync/atomic"

	"termtask/internal/screen"
)

// Stats holds renderer counters. Read with the Stats method.
type Stats struct {
	Frames        uint64
	FullRefreshes uint64
	CellsWritten  uint64
	DroppedFrames uint64
}

// Renderer converts draw-buffer contents into minimal terminal output.
// It is not safe for concurrent use; the application loop is the only
// caller.
type Renderer struct {
	out   io.Writer
	front *screen.Buffer
	back  *screen.Buffer

	full bool

	cursorX, cursorY int
	cursorVisible    bool

	// onWriteError reports failed terminal writes. Render failures are
	// non-fatal; the frame is skipped and retried on the next pass.
	onWriteError func(error)

	frames        atomic.Uint64
	fullRefreshes atomic.Uint64
	cellsWritten  atomic.Uint64
	droppedFrames atomic.Uint64
}

// New creates a renderer of the given size writing to out.
// The first render is always a full refresh.
func New(out io.Writer, width, height int) *Renderer {
	return &Renderer{
		out:   out,
		front: screen.NewBuffer(width, height),
		back:  screen.NewBuffer(width, height),
		full:  true,
	}
}

// OnWriteError registers a callback invoked when a terminal write
// fails. The callback must not call back into the renderer.
func (r *Renderer) OnWriteError(fn func(error)) {
	r.onWriteError = fn
}

// DrawBuffer returns the back buffer. All drawing targets this buffer;
// it becomes visible on the next Render.
func (r *Renderer) DrawBuffer() *screen.Buffer {
	return r.back
}

// Size returns the renderer dimensions.
func (r *Renderer) Size() (width, height int) {
	return r.back.Size()
}

// Resize replaces both buffers at the new size and forces the next
// render to be a full refresh; a diff between differently sized
// buffers is undefined.
func (r *Renderer) Resize(width, height int) {
	r.front = screen.NewBuffer(width, height)
	r.back = screen.NewBuffer(width, height)
	r.full = true
}

// ForceFullRefresh makes the next render repaint every cell regardless
// of the diff. Used after external writes to the terminal.
func (r *Renderer) ForceFullRefresh() {
	r.full = true
}

// SetCursor declares where the hardware cursor should rest after each
// frame, and whether it is visible. Rendering itself is declarative;
// this is how a text caret is shown.
func (r *Renderer) SetCursor(x, y int, visible bool) {
	r.cursorX, r.cursorY = x, y
	r.cursorVisible = visible
}

// Render flushes the back buffer to the terminal. On success the back
// buffer becomes the new front buffer. On write failure the frame is
// skipped: front is left untouched so the next render retries the
// same cells.
func (r *Renderer) Render() {
	var out bytes.Buffer

	cells := 0
	if r.full {
		cells = r.renderFull(&out)
	} else {
		diff := ComputeDiff(r.front, r.back)
		if diff.IsEmpty() {
			// Still reposition the cursor; the caret may have moved
			// without any cell changing.
			r.finishFrame(&out)
			r.flush(&out, 0, false)
			return
		}
		cells = r.renderDiff(&out, diff)
	}

	r.finishFrame(&out)
	r.flush(&out, cells, r.full)
}

// renderFull clears the terminal and paints every row.
func (r *Renderer) renderFull(out *bytes.Buffer) int {
	out.WriteString(ansiClear)
	out.WriteString(ansiHome)

	w, h := r.back.Size()
	var cur screen.Style
	styled := false

	for y := 0; y < h; y++ {
		writeCursorMove(out, 0, y)
		for x := 0; x < w; x++ {
			cell := r.back.Get(x, y)
			if cell.IsContinuation() {
				continue
			}
			if !styled || !cell.Style.Equals(cur) {
				writeStyle(out, cell.Style)
				cur = cell.Style
				styled = true
			}
			out.WriteRune(cell.Rune)
		}
	}
	return w * h
}

// renderDiff emits one cursor move and one batched write per run of
// horizontally adjacent changed cells.
func (r *Renderer) renderDiff(out *bytes.Buffer, diff Diff) int {
	var cur screen.Style
	styled := false
	cells := 0

	for _, run := range diff.runsByRow(r.back) {
		writeCursorMove(out, run.x, run.y)
		for _, cell := range run.cells {
			cells++
			if cell.IsContinuation() {
				continue
			}
			if !styled || !cell.Style.Equals(cur) {
				writeStyle(out, cell.Style)
				cur = cell.Style
				styled = true
			}
			out.WriteRune(cell.Rune)
		}
	}
	return cells
}

// finishFrame resets attribute state once per frame and parks the
// hardware cursor at the declared position.
func (r *Renderer) finishFrame(out *bytes.Buffer) {
	out.WriteString(ansiReset)
	writeCursorMove(out, r.cursorX, r.cursorY)
	if r.cursorVisible {
		out.WriteString(ansiShowCursor)
	} else {
		out.WriteString(ansiHideCursor)
	}
}

func (r *Renderer) flush(out *bytes.Buffer, cells int, wasFull bool) {
	if _, err := r.out.Write(out.Bytes()); err != nil {
		r.droppedFrames.Add(1)
		if r.onWriteError != nil {
			r.onWriteError(err)
		}
		return
	}

	r.frames.Add(1)
	r.cellsWritten.Add(uint64(cells))
	if wasFull {
		r.fullRefreshes.Add(1)
	}

	r.front = r.back.Clone()
	r.full = false
}

// Stats returns a snapshot of the renderer counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Frames:        r.frames.Load(),
		FullRefreshes: r.fullRefreshes.Load(),
		CellsWritten:  r.cellsWritten.Load(),
		DroppedFrames: r.droppedFrames.Load(),
	}
}
