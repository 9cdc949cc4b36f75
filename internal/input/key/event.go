package key

import (
	"strings"
	"unicode"
)

// Event represents a single key press.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsPrintable returns true if this is a printable character with no
// Ctrl/Alt modifier. Shift alone is part of the character itself.
func (e Event) IsPrintable() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune) &&
		e.Modifiers&(ModCtrl|ModAlt) == 0
}

// Matches returns true if two events describe the same key chord.
// Shift is ignored for character keys since it is encoded in the rune.
func (e Event) Matches(other Event) bool {
	if e.Key != other.Key {
		return false
	}
	if e.Key == KeyRune && e.Rune != other.Rune {
		return false
	}
	mask := ModCtrl | ModAlt
	if e.Key != KeyRune {
		mask |= ModShift
	}
	return e.Modifiers&mask == other.Modifiers&mask
}

// String returns a canonical representation, e.g. "a", "Ctrl+T", "Enter".
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Modifiers.String())
	if e.Key == KeyRune {
		b.WriteRune(e.Rune)
	} else {
		b.WriteString(e.Key.String())
	}
	return b.String()
}
