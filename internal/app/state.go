package app

// Focus selects which surface receives key events.
type Focus int

const (
	// FocusCommand puts keys into the command line.
	FocusCommand Focus = iota
	// FocusGrid puts keys into the data grid.
	FocusGrid
)

// String returns the focus name.
func (f Focus) String() string {
	switch f {
	case FocusCommand:
		return "command"
	case FocusGrid:
		return "grid"
	default:
		return "unknown"
	}
}

// GridState is the sub-state within grid focus.
type GridState int

const (
	// GridBrowse navigates the selection.
	GridBrowse GridState = iota
	// GridEdit edits the selected cell in place.
	GridEdit
)

// String returns the grid state name.
func (g GridState) String() string {
	switch g {
	case GridBrowse:
		return "browse"
	case GridEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// UIState is the mode state machine's data. The command buffer
// survives focus toggles; the edit buffer lives only while a cell
// edit is open.
type UIState struct {
	Focus Focus
	Grid  GridState

	Command LineEditor

	Edit      LineEditor
	editID    string
	editField string
}
