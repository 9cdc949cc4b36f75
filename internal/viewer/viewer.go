// Package viewer implements the data grid: a filtered, sorted
// projection of one store collection with selection and scroll state,
// rendered into a screen region. The projection is rebuilt from a
// fresh snapshot whenever the collection's digest moves, and rebuilt
// in place from the cached snapshot when only filters or sort change.
package viewer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"termtask/internal/render/layout"
	"termtask/internal/screen"
	"termtask/internal/store"
)

// Styles selects the look of each grid element.
type Styles struct {
	Header   screen.Style
	Row      screen.Style
	Selected screen.Style
	Status   screen.Style
}

// Viewer owns the grid state for one collection.
type Viewer struct {
	data *store.Store
	kind string
	cols []Column

	filters map[string]string
	sortBy  string
	sortAsc bool

	raw    []store.Record
	rows   []store.Record
	digest uint64
	loaded bool

	selected    int
	selectedCol int
	scroll      int
	viewRows    int
}

// New builds a viewer over one collection. The schema provider's
// column list is validated here; a bad layout is a construction
// failure, not a render-time surprise.
func New(data *store.Store, kind string, provider SchemaProvider) (*Viewer, error) {
	cols := provider(kind)
	if err := validateColumns(kind, cols); err != nil {
		return nil, err
	}
	return &Viewer{
		data:    data,
		kind:    kind,
		cols:    append([]Column(nil), cols...),
		filters: make(map[string]string),
		sortAsc: true,
	}, nil
}

// Columns returns the column specs in display order.
func (v *Viewer) Columns() []Column {
	return append([]Column(nil), v.cols...)
}

// Refresh synchronizes the projection with the store. When the
// collection digest has not moved since the last refresh the snapshot
// and projection are reused as-is.
func (v *Viewer) Refresh() error {
	digest, err := v.data.Digest(v.kind)
	if err != nil {
		return err
	}
	if v.loaded && digest == v.digest {
		return nil
	}

	raw, err := v.data.GetAll(v.kind)
	if err != nil {
		return err
	}
	v.raw = raw
	v.digest = digest
	v.loaded = true
	v.rebuild()
	return nil
}

// SetFilter adds or replaces the substring predicate for a field.
// An empty substring clears the field's predicate.
func (v *Viewer) SetFilter(field, substring string) {
	if substring == "" {
		delete(v.filters, field)
	} else {
		v.filters[field] = substring
	}
	v.rebuild()
}

// ClearFilters removes every predicate.
func (v *Viewer) ClearFilters() {
	v.filters = make(map[string]string)
	v.rebuild()
}

// SetSort orders the projection by one field. An empty field restores
// store order.
func (v *Viewer) SetSort(field string, ascending bool) {
	v.sortBy = field
	v.sortAsc = ascending
	v.rebuild()
}

// rebuild re-projects the cached snapshot and restores the selection
// invariant.
func (v *Viewer) rebuild() {
	v.rows = project(v.raw, v.filters, v.sortBy, v.sortAsc)
	v.clamp()
}

// clamp enforces 0 <= selected < len(rows), selected == 0 when the
// projection is empty, and keeps the selected row inside the viewport.
func (v *Viewer) clamp() {
	if len(v.rows) == 0 {
		v.selected = 0
		v.scroll = 0
		return
	}
	if v.selected >= len(v.rows) {
		v.selected = len(v.rows) - 1
	}
	if v.selected < 0 {
		v.selected = 0
	}
	v.follow()
}

// follow scrolls so the selected row stays visible.
func (v *Viewer) follow() {
	if v.viewRows <= 0 {
		v.scroll = 0
		return
	}
	if v.selected < v.scroll {
		v.scroll = v.selected
	}
	if v.selected >= v.scroll+v.viewRows {
		v.scroll = v.selected - v.viewRows + 1
	}
	if max := len(v.rows) - v.viewRows; v.scroll > max {
		v.scroll = max
	}
	if v.scroll < 0 {
		v.scroll = 0
	}
}

// MoveSelection moves the selected row by delta, clamped.
func (v *Viewer) MoveSelection(delta int) {
	v.selected += delta
	v.clamp()
}

// MovePage moves the selection by whole viewports.
func (v *Viewer) MovePage(pages int) {
	step := v.viewRows
	if step <= 0 {
		step = 1
	}
	v.MoveSelection(pages * step)
}

// SelectFirst jumps to the first row.
func (v *Viewer) SelectFirst() {
	v.selected = 0
	v.clamp()
}

// SelectLast jumps to the last row.
func (v *Viewer) SelectLast() {
	v.selected = len(v.rows) - 1
	v.clamp()
}

// MoveColumn moves the selected column by delta, clamped.
func (v *Viewer) MoveColumn(delta int) {
	v.selectedCol += delta
	if v.selectedCol < 0 {
		v.selectedCol = 0
	}
	if v.selectedCol >= len(v.cols) {
		v.selectedCol = len(v.cols) - 1
	}
}

// Selected returns a copy of the selected record, if any.
func (v *Viewer) Selected() (store.Record, bool) {
	if len(v.rows) == 0 {
		return nil, false
	}
	return v.rows[v.selected].Clone(), true
}

// SelectedColumn returns the column the selection currently sits in.
func (v *Viewer) SelectedColumn() Column {
	return v.cols[v.selectedCol]
}

// SelectedIndex returns the selected row index within the projection.
func (v *Viewer) SelectedIndex() int {
	return v.selected
}

// RowCount returns the size of the filtered projection.
func (v *Viewer) RowCount() int {
	return len(v.rows)
}

// TotalCount returns the size of the unfiltered snapshot.
func (v *Viewer) TotalCount() int {
	return len(v.raw)
}

// SetViewportRows fixes the number of visible data rows for movement
// and scrolling between renders.
func (v *Viewer) SetViewportRows(n int) {
	v.viewRows = n
	v.clamp()
}

// CellPosition returns the screen rectangle of the selected cell
// within the region, when the selected row is inside the viewport.
// In-place cell editing draws over this rectangle.
func (v *Viewer) CellPosition(region layout.Region) (x, y, width int, ok bool) {
	if len(v.rows) == 0 {
		return 0, 0, 0, false
	}
	row := v.selected - v.scroll
	if row < 0 || row >= v.viewRows {
		return 0, 0, 0, false
	}
	x = region.X
	for i := 0; i < v.selectedCol; i++ {
		x += v.cols[i].Width + len(columnSeparator)
	}
	return x, region.Y + 1 + row, v.cols[v.selectedCol].Width, true
}

// Render draws the grid into the region: header row, data rows, then
// a one-line status strip. Fails loudly when the columns do not fit.
func (v *Viewer) Render(buf *screen.Buffer, region layout.Region, styles Styles) error {
	if region.Empty() {
		return nil
	}
	if err := checkFit(v.cols, region.Width); err != nil {
		return err
	}

	v.viewRows = region.Height - 2
	if v.viewRows < 0 {
		v.viewRows = 0
	}
	v.follow()

	buf.ClearRegion(region.X, region.Y, region.Width, region.Height)

	y := region.Y
	if region.Height >= 1 {
		v.renderHeader(buf, region, y, styles.Header)
		y++
	}

	for i := 0; i < v.viewRows && v.scroll+i < len(v.rows); i++ {
		style := styles.Row
		if v.scroll+i == v.selected {
			style = styles.Selected
		}
		v.renderRow(buf, region, y, v.rows[v.scroll+i], style)
		y++
	}

	if region.Height >= 2 {
		statusY := region.Y + region.Height - 1
		status := fitCell(v.statusLine(), region.Width)
		buf.SetText(region.X, statusY, status, styles.Status)
	}
	return nil
}

func (v *Viewer) renderHeader(buf *screen.Buffer, region layout.Region, y int, style screen.Style) {
	x := region.X
	for i, col := range v.cols {
		if i > 0 {
			buf.SetText(x, y, columnSeparator, style)
			x += len(columnSeparator)
		}
		buf.SetText(x, y, fitCell(col.Label, col.Width), style)
		x += col.Width
	}
}

func (v *Viewer) renderRow(buf *screen.Buffer, region layout.Region, y int, rec store.Record, style screen.Style) {
	x := region.X
	for i, col := range v.cols {
		if i > 0 {
			buf.SetText(x, y, columnSeparator, style)
			x += len(columnSeparator)
		}
		buf.SetText(x, y, fitCell(cellText(rec, col.Name), col.Width), style)
		x += col.Width
	}
	// Row styling covers the full region width, not just the populated
	// columns, so a selected row reads as one highlighted band.
	for fill := x; fill < region.X+region.Width; fill++ {
		buf.Set(fill, y, screen.Cell{Rune: ' ', Width: 1, Style: style})
	}
}

// statusLine summarizes counts and the active query.
func (v *Viewer) statusLine() string {
	parts := []string{fmt.Sprintf("%d/%d rows", len(v.rows), len(v.raw))}

	if v.sortBy != "" {
		dir := "asc"
		if !v.sortAsc {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort:%s %s", v.sortBy, dir))
	}

	if len(v.filters) > 0 {
		fields := make([]string, 0, len(v.filters))
		for field := range v.filters {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		preds := make([]string, len(fields))
		for i, field := range fields {
			preds[i] = fmt.Sprintf("%s~%s", field, v.filters[field])
		}
		parts = append(parts, "filter:"+strings.Join(preds, ","))
	}
	return strings.Join(parts, " | ")
}

// fitCell truncates with an ellipsis and pads to an exact width.
func fitCell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
