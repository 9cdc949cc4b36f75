package key

import (
	"strings"
)

// Modifier represents modifier key flags.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModCtrl  Modifier = 1 << iota
	ModAlt
	ModShift
)

// Has returns true if the modifier set contains the given modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new modifier set with the given modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// HasCtrl returns true if Ctrl is pressed.
func (m Modifier) HasCtrl() bool { return m.Has(ModCtrl) }

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool { return m.Has(ModAlt) }

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool { return m.Has(ModShift) }

// ModifierFromName returns the modifier for a lowercase name, or ModNone.
func ModifierFromName(name string) Modifier {
	switch strings.ToLower(name) {
	case "ctrl", "control", "c":
		return ModCtrl
	case "alt", "a", "meta", "m":
		return ModAlt
	case "shift", "s":
		return ModShift
	default:
		return ModNone
	}
}

// String returns the canonical modifier prefix, e.g. "Ctrl+Alt+".
func (m Modifier) String() string {
	var b strings.Builder
	if m.HasCtrl() {
		b.WriteString("Ctrl+")
	}
	if m.HasAlt() {
		b.WriteString("Alt+")
	}
	if m.HasShift() {
		b.WriteString("Shift+")
	}
	return b.String()
}
