package app

// LineEditor is a single-line text buffer with a cursor, shared by the
// command line and in-place cell editing. The cursor is a rune index
// in [0, len].
type LineEditor struct {
	runes  []rune
	cursor int
}

// Text returns the buffer contents.
func (e *LineEditor) Text() string {
	return string(e.runes)
}

// Cursor returns the cursor's rune index.
func (e *LineEditor) Cursor() int {
	return e.cursor
}

// Len returns the buffer length in runes.
func (e *LineEditor) Len() int {
	return len(e.runes)
}

// Set replaces the buffer and puts the cursor at the given index,
// clamped.
func (e *LineEditor) Set(text string, cursor int) {
	e.runes = []rune(text)
	e.cursor = cursor
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor > len(e.runes) {
		e.cursor = len(e.runes)
	}
}

// Clear empties the buffer.
func (e *LineEditor) Clear() {
	e.runes = e.runes[:0]
	e.cursor = 0
}

// Insert places a rune at the cursor and advances it.
func (e *LineEditor) Insert(r rune) {
	e.runes = append(e.runes, 0)
	copy(e.runes[e.cursor+1:], e.runes[e.cursor:])
	e.runes[e.cursor] = r
	e.cursor++
}

// Backspace deletes the rune before the cursor.
func (e *LineEditor) Backspace() {
	if e.cursor == 0 {
		return
	}
	e.runes = append(e.runes[:e.cursor-1], e.runes[e.cursor:]...)
	e.cursor--
}

// Left moves the cursor one rune left.
func (e *LineEditor) Left() {
	if e.cursor > 0 {
		e.cursor--
	}
}

// Right moves the cursor one rune right.
func (e *LineEditor) Right() {
	if e.cursor < len(e.runes) {
		e.cursor++
	}
}

// Home moves the cursor to the start.
func (e *LineEditor) Home() {
	e.cursor = 0
}

// End moves the cursor past the last rune.
func (e *LineEditor) End() {
	e.cursor = len(e.runes)
}
