package app

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"termtask/internal/config"
	"termtask/internal/input"
	"termtask/internal/input/key"
	"termtask/internal/render"
	"termtask/internal/render/layout"
	"termtask/internal/screen"
	"termtask/internal/store"
	"termtask/internal/viewer"
)

// EventSource delivers decoded key events. Satisfied by input.Decoder.
type EventSource interface {
	ReadEvent() (key.Event, error)
}

// SizeSource reports the current terminal dimensions. Satisfied by
// term.Terminal.
type SizeSource interface {
	Size() (width, height int, err error)
}

// Executor receives the submitted command line. Its outcome is
// whatever it does to the store; the grid refreshes afterward either
// way.
type Executor func(line string)

// Completer proposes completions for the command line at a cursor
// offset.
type Completer func(line string, cursor int) []string

// Options wires an App together.
type Options struct {
	Renderer   *render.Renderer
	Viewer     *viewer.Viewer
	Store      *store.Store
	Collection string

	Events EventSource
	Sizes  SizeSource

	Bindings config.Bindings
	Theme    config.Theme
	Layout   config.LayoutConfig
	Debounce time.Duration

	Executor  Executor
	Completer Completer

	Logger  *Logger
	Metrics *Metrics
}

// App runs the single-threaded event loop: block on the next key
// event, handle it fully, render, wait again. Rendering happens only
// after a handled event or a settled resize.
type App struct {
	renderer   *render.Renderer
	viewer     *viewer.Viewer
	data       *store.Store
	collection string

	events EventSource
	sizes  SizeSource

	bindings config.Bindings
	theme    config.Theme
	bands    config.LayoutConfig
	debounce time.Duration

	executor  Executor
	completer Completer

	log     *Logger
	metrics *Metrics

	state UIState
	quit  bool

	// Last size observed by the per-iteration poll. The renderer is
	// only resized once this stops moving for a debounce window.
	polledW int
	polledH int
}

// New builds the controller. Renderer, viewer, store and events are
// required; the rest have workable defaults.
func New(opts Options) (*App, error) {
	if opts.Renderer == nil || opts.Viewer == nil || opts.Store == nil || opts.Events == nil {
		return nil, errors.New("app: renderer, viewer, store and events are required")
	}
	if opts.Collection == "" {
		return nil, errors.New("app: collection name is required")
	}

	a := &App{
		renderer:   opts.Renderer,
		viewer:     opts.Viewer,
		data:       opts.Store,
		collection: opts.Collection,
		events:     opts.Events,
		sizes:      opts.Sizes,
		bindings:   opts.Bindings,
		theme:      opts.Theme,
		bands:      opts.Layout,
		debounce:   opts.Debounce,
		executor:   opts.Executor,
		completer:  opts.Completer,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
	if a.log == nil {
		a.log = NullLogger
	}
	if a.metrics == nil {
		a.metrics = NewMetrics()
	}
	if a.debounce <= 0 {
		a.debounce = 150 * time.Millisecond
	}
	a.state.Focus = FocusGrid
	a.polledW, a.polledH = a.renderer.Size()

	a.renderer.OnWriteError(func(err error) {
		a.log.Error("terminal write failed, frame skipped: %v", err)
	})
	return a, nil
}

// State exposes the mode state machine.
func (a *App) State() *UIState {
	return &a.state
}

// Run drives the loop until the quit chord or the event source closes.
func (a *App) Run() error {
	if err := a.viewer.Refresh(); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	if err := a.render(); err != nil {
		return err
	}

	events := make(chan key.Event)
	errs := make(chan error, 1)
	go func() {
		for {
			ev, err := a.events.ReadEvent()
			if err != nil {
				errs <- err
				return
			}
			events <- ev
		}
	}()

	resize := time.NewTimer(a.debounce)
	if !resize.Stop() {
		<-resize.C
	}
	defer resize.Stop()

	for !a.quit {
		select {
		case ev := <-events:
			start := time.Now()
			handled := a.handleEvent(ev)
			a.metrics.RecordEvent(time.Since(start))
			a.pollSize(resize)
			if handled {
				if err := a.render(); err != nil {
					return err
				}
			}

		case <-resize.C:
			a.applyResize()
			a.pollSize(resize)
			if err := a.render(); err != nil {
				return err
			}

		case err := <-errs:
			if errors.Is(err, input.ErrClosed) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
	}
	return nil
}

// pollSize samples the terminal size once. A change from the last
// sample restarts the debounce timer; the renderer itself is not
// touched until the timer settles.
func (a *App) pollSize(timer *time.Timer) {
	if a.sizes == nil {
		return
	}
	w, h, err := a.sizes.Size()
	if err != nil || w <= 0 || h <= 0 {
		return
	}
	if w == a.polledW && h == a.polledH {
		return
	}
	a.polledW, a.polledH = w, h

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(a.debounce)
}

// applyResize resizes the renderer to the settled dimensions and
// forces a full repaint.
func (a *App) applyResize() {
	w, h := a.renderer.Size()
	if a.polledW == w && a.polledH == h {
		return
	}
	a.renderer.Resize(a.polledW, a.polledH)
	a.metrics.RecordResize()
	a.log.Debug("resized to %dx%d", a.polledW, a.polledH)
}

// handleEvent routes one key event through the state machine and
// reports whether anything consumed it.
func (a *App) handleEvent(ev key.Event) bool {
	// Unknown escape sequences decode to an empty event; skip them.
	if ev.Key == key.KeyNone && ev.Rune == 0 {
		return false
	}

	if ev.Matches(a.bindings.Quit) {
		a.quit = true
		return true
	}
	if ev.Matches(a.bindings.Toggle) {
		a.toggleFocus()
		return true
	}

	switch a.state.Focus {
	case FocusCommand:
		return a.handleCommand(ev)
	case FocusGrid:
		if a.state.Grid == GridEdit {
			return a.handleEdit(ev)
		}
		return a.handleBrowse(ev)
	}
	return false
}

// toggleFocus flips between command and grid focus. The command
// buffer is kept; an open cell edit is discarded. Both sides redraw
// their own chrome, so the repaint is full.
func (a *App) toggleFocus() {
	if a.state.Focus == FocusGrid && a.state.Grid == GridEdit {
		a.closeEdit()
	}
	if a.state.Focus == FocusCommand {
		a.state.Focus = FocusGrid
	} else {
		a.state.Focus = FocusCommand
	}
	a.renderer.ForceFullRefresh()
}

// handleCommand edits the command line.
func (a *App) handleCommand(ev key.Event) bool {
	if ev.Matches(a.bindings.Complete) {
		if a.completer == nil {
			return true
		}
		candidates := a.completer(a.state.Command.Text(), a.state.Command.Cursor())
		if len(candidates) > 0 {
			a.state.Command.Set(candidates[0], len([]rune(candidates[0])))
		}
		return true
	}

	switch ev.Key {
	case key.KeyEnter:
		a.submitCommand()
		return true
	case key.KeyBackspace:
		a.state.Command.Backspace()
		return true
	case key.KeyLeft:
		a.state.Command.Left()
		return true
	case key.KeyRight:
		a.state.Command.Right()
		return true
	case key.KeyHome:
		a.state.Command.Home()
		return true
	case key.KeyEnd:
		a.state.Command.End()
		return true
	}

	if ev.IsPrintable() {
		a.state.Command.Insert(ev.Rune)
		return true
	}
	return false
}

// submitCommand hands the line to the executor and refreshes the grid
// regardless of what the command did.
func (a *App) submitCommand() {
	line := a.state.Command.Text()
	if a.executor != nil {
		a.executor(line)
	}
	a.metrics.RecordCommand()
	a.state.Command.Clear()
	if err := a.viewer.Refresh(); err != nil {
		a.log.Error("refresh after command: %v", err)
	}
}

// handleBrowse navigates the grid and opens cell edits.
func (a *App) handleBrowse(ev key.Event) bool {
	switch ev.Key {
	case key.KeyUp:
		a.viewer.MoveSelection(-1)
		return true
	case key.KeyDown:
		a.viewer.MoveSelection(1)
		return true
	case key.KeyPageUp:
		a.viewer.MovePage(-1)
		return true
	case key.KeyPageDown:
		a.viewer.MovePage(1)
		return true
	case key.KeyHome:
		a.viewer.SelectFirst()
		return true
	case key.KeyEnd:
		a.viewer.SelectLast()
		return true
	case key.KeyLeft:
		a.viewer.MoveColumn(-1)
		return true
	case key.KeyRight:
		a.viewer.MoveColumn(1)
		return true
	case key.KeyEnter:
		a.openEdit(0, false)
		return true
	}

	if ev.Matches(a.bindings.Edit) {
		a.openEdit(0, false)
		return true
	}

	// Typing straight over a cell starts an edit seeded with the
	// typed character in front of the current value.
	if ev.IsPrintable() {
		a.openEdit(ev.Rune, true)
		return true
	}
	return false
}

// openEdit enters cell editing for the selected cell. With a typed
// rune the buffer starts as typed char + current value with the
// cursor after the typed char; otherwise it is the current value with
// the cursor at the end.
func (a *App) openEdit(typed rune, hasTyped bool) {
	rec, ok := a.viewer.Selected()
	if !ok {
		return
	}
	col := a.viewer.SelectedColumn()
	current := viewer.CellText(rec, col.Name)

	if hasTyped {
		a.state.Edit.Set(string(typed)+current, 1)
	} else {
		a.state.Edit.Set(current, len([]rune(current)))
	}
	a.state.editID = rec.ID()
	a.state.editField = col.Name
	a.state.Grid = GridEdit
}

// handleEdit edits the open cell buffer.
func (a *App) handleEdit(ev key.Event) bool {
	switch ev.Key {
	case key.KeyEnter:
		a.commitEdit()
		return true
	case key.KeyEscape:
		a.closeEdit()
		return true
	case key.KeyBackspace:
		a.state.Edit.Backspace()
		return true
	case key.KeyLeft:
		a.state.Edit.Left()
		return true
	case key.KeyRight:
		a.state.Edit.Right()
		return true
	case key.KeyHome:
		a.state.Edit.Home()
		return true
	case key.KeyEnd:
		a.state.Edit.End()
		return true
	}

	if ev.IsPrintable() {
		a.state.Edit.Insert(ev.Rune)
		return true
	}
	return false
}

// commitEdit writes the edit buffer back into the record's field.
// Commit is best-effort: a rejected write is logged and swallowed so
// the loop stays interactive; the store re-validates on the next
// explicit save anyway.
func (a *App) commitEdit() {
	id, field := a.state.editID, a.state.editField
	text := a.state.Edit.Text()
	a.closeEdit()

	prev, err := a.data.GetByID(a.collection, id)
	if err != nil {
		a.log.Warn("edit target vanished: %v", err)
		a.metrics.RecordEditCommit(false)
		return
	}

	_, err = a.data.Update(a.collection, id, store.Record{field: editValue(prev[field], text)})
	if err != nil {
		a.log.Warn("cell edit rejected: %v", err)
		a.metrics.RecordEditCommit(false)
	} else {
		a.metrics.RecordEditCommit(true)
	}

	if err := a.viewer.Refresh(); err != nil {
		a.log.Error("refresh after edit: %v", err)
	}
}

// closeEdit leaves edit state, discarding the buffer.
func (a *App) closeEdit() {
	a.state.Grid = GridBrowse
	a.state.Edit.Clear()
	a.state.editID = ""
	a.state.editField = ""
}

// editValue coerces the edited text back toward the field's previous
// type so a numeric or boolean cell stays numeric or boolean.
func editValue(prev any, text string) any {
	switch prev.(type) {
	case bool:
		if b, err := strconv.ParseBool(text); err == nil {
			return b
		}
	case int, int64, float64:
		if n, err := strconv.ParseFloat(text, 64); err == nil {
			if n == float64(int64(n)) {
				return int(n)
			}
			return n
		}
	}
	return text
}

// render composes the frame into the draw buffer and flushes it.
// A viewer configuration error is fatal; everything else in a render
// pass is absorbed by the renderer.
func (a *App) render() error {
	start := time.Now()

	w, h := a.renderer.Size()
	regions := layout.Layout(w, h,
		a.bands.HeaderHeight, a.bands.StatusHeight, a.bands.CommandHeight)

	back := a.renderer.DrawBuffer()
	back.Clear()

	a.drawHeader(back, regions.Header)
	if err := a.viewer.Render(back, regions.Content, a.gridStyles()); err != nil {
		return fmt.Errorf("render grid: %w", err)
	}
	a.drawStatus(back, regions.Status)
	a.drawCommand(back, regions.Command)
	a.placeCursor(regions)

	a.renderer.Render()
	a.metrics.RecordRender(time.Since(start))
	return nil
}

func (a *App) gridStyles() viewer.Styles {
	return viewer.Styles{
		Header:   a.theme.Header,
		Selected: a.theme.Selected,
		Status:   a.theme.Status,
	}
}

func (a *App) drawHeader(buf *screen.Buffer, region layout.Region) {
	if region.Empty() {
		return
	}
	title := fmt.Sprintf(" termtask · %s", a.collection)
	buf.SetText(region.X, region.Y, title, a.theme.Header)
}

func (a *App) drawStatus(buf *screen.Buffer, region layout.Region) {
	if region.Empty() {
		return
	}
	mode := a.state.Focus.String()
	if a.state.Focus == FocusGrid {
		mode += "/" + a.state.Grid.String()
	}
	line := " " + mode
	if a.data.Dirty() {
		line += " · unsaved"
	}
	buf.SetText(region.X, region.Y, line, a.theme.Status)
}

func (a *App) drawCommand(buf *screen.Buffer, region layout.Region) {
	if region.Empty() {
		return
	}
	buf.SetText(region.X, region.Y, ":"+a.state.Command.Text(), a.theme.Command)
}

// placeCursor parks the hardware cursor where the active text entry
// is, or hides it while browsing.
func (a *App) placeCursor(regions layout.Regions) {
	switch {
	case a.state.Focus == FocusCommand && !regions.Command.Empty():
		x := regions.Command.X + 1 + a.state.Command.Cursor()
		if max := regions.Command.X + regions.Command.Width - 1; x > max {
			x = max
		}
		a.renderer.SetCursor(x, regions.Command.Y, true)

	case a.state.Focus == FocusGrid && a.state.Grid == GridEdit:
		x, y, width, ok := a.viewer.CellPosition(regions.Content)
		if !ok {
			a.renderer.SetCursor(0, 0, false)
			return
		}
		// The edit buffer draws over the cell in the selected style.
		back := a.renderer.DrawBuffer()
		back.SetText(x, y, fitEdit(a.state.Edit.Text(), width), a.theme.Selected)
		cx := x + a.state.Edit.Cursor()
		if max := x + width - 1; cx > max {
			cx = max
		}
		a.renderer.SetCursor(cx, y, true)

	default:
		a.renderer.SetCursor(0, 0, false)
	}
}

// fitEdit pads the edit text to the cell width so stale cell content
// underneath is fully covered.
func fitEdit(text string, width int) string {
	runes := []rune(text)
	if len(runes) > width {
		runes = runes[len(runes)-width:]
	}
	for len(runes) < width {
		runes = append(runes, ' ')
	}
	return string(runes)
}
