// Package key defines keyboard key events and a parser for the key
// specification strings used by the keybinding configuration.
package key

import (
	"strings"
)

// Key represents a keyboard key.
// For character keys, use KeyRune and set the Rune field in Event.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// KeyRune is a printable character; the Event carries the rune.
	KeyRune
)

var keyNames = map[Key]string{
	KeyEscape:    "Escape",
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
}

// String returns the canonical key name.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k == KeyRune {
		return "Rune"
	}
	return "None"
}

// IsSpecial returns true for non-character keys.
func (k Key) IsSpecial() bool {
	return k != KeyNone && k != KeyRune
}

// FromName returns the key for a case-insensitive name, or KeyNone.
func FromName(name string) Key {
	lower := strings.ToLower(name)
	for k, n := range keyNames {
		if strings.ToLower(n) == lower {
			return k
		}
	}
	// Aliases seen in keybinding files.
	switch lower {
	case "esc":
		return KeyEscape
	case "cr", "return":
		return KeyEnter
	case "bs":
		return KeyBackspace
	case "del":
		return KeyDelete
	case "pgup":
		return KeyPageUp
	case "pgdn", "pgdown":
		return KeyPageDown
	}
	return KeyNone
}
