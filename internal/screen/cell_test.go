package screen

import (
	"testing"
)

func TestEmptyCell(t *testing.T) {
	c := EmptyCell()
	if c.Rune != ' ' {
		t.Errorf("empty cell rune should be space, got %q", c.Rune)
	}
	if c.Width != 1 {
		t.Errorf("empty cell width should be 1, got %d", c.Width)
	}
	if !c.Style.IsDefault() {
		t.Error("empty cell should have default style")
	}
}

func TestNewCell(t *testing.T) {
	c := NewCell('A')
	if c.Rune != 'A' {
		t.Errorf("expected rune 'A', got %q", c.Rune)
	}
	if c.Width != 1 {
		t.Errorf("expected width 1, got %d", c.Width)
	}
}

func TestNewStyledCell(t *testing.T) {
	style := DefaultStyle().WithForeground(ColorRed)
	c := NewStyledCell('X', style)

	if c.Rune != 'X' {
		t.Errorf("expected rune 'X', got %q", c.Rune)
	}
	if !c.Style.Foreground.Equals(ColorRed) {
		t.Error("styled cell should have red foreground")
	}
}

func TestCellEquals(t *testing.T) {
	a := NewCell('A')
	b := NewCell('A')
	if !a.Equals(b) {
		t.Error("identical cells should be equal")
	}
	if a.Equals(b.WithStyle(DefaultStyle().Bold())) {
		t.Error("cells with different styles should not be equal")
	}
}

func TestContinuationCell(t *testing.T) {
	c := ContinuationCell()
	if !c.IsContinuation() {
		t.Error("continuation cell should report IsContinuation")
	}
	if NewCell('A').IsContinuation() {
		t.Error("normal cell should not report IsContinuation")
	}
}

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'a', 1},
		{' ', 1},
		{'\t', 0},
		{0x07, 0},
		{'世', 2},
		{'界', 2},
		{'ﾊ', 1}, // halfwidth katakana
	}

	for _, tt := range tests {
		if got := RuneWidth(tt.r); got != tt.want {
			t.Errorf("RuneWidth(%q) = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestStyleBuilders(t *testing.T) {
	s := DefaultStyle().WithForeground(ColorGreen).WithBackground(ColorBlack).Bold().Underline()

	if !s.Foreground.Equals(ColorGreen) {
		t.Error("foreground not applied")
	}
	if !s.Background.Equals(ColorBlack) {
		t.Error("background not applied")
	}
	if !s.Attributes.Has(AttrBold) || !s.Attributes.Has(AttrUnderline) {
		t.Error("attributes not applied")
	}
	if s.Attributes.Has(AttrItalic) {
		t.Error("italic should not be set")
	}
	if s.IsDefault() {
		t.Error("styled style should not be default")
	}
}

func TestAttributeWithWithout(t *testing.T) {
	a := AttrNone.With(AttrBold).With(AttrDim)
	if !a.Has(AttrBold) || !a.Has(AttrDim) {
		t.Error("With should add attributes")
	}
	a = a.Without(AttrBold)
	if a.Has(AttrBold) {
		t.Error("Without should remove the attribute")
	}
	if !a.Has(AttrDim) {
		t.Error("Without should not remove other attributes")
	}
}

func TestPaletteAndRGBColors(t *testing.T) {
	p := PaletteColor(3)
	if p.Mode != ColorModePalette || p.Index != 3 {
		t.Errorf("unexpected palette color: %+v", p)
	}
	c := RGB(10, 20, 30)
	if c.Mode != ColorModeRGB || c.R != 10 || c.G != 20 || c.B != 30 {
		t.Errorf("unexpected rgb color: %+v", c)
	}
	if !ColorDefault.IsDefault() {
		t.Error("ColorDefault should be default")
	}
	if ColorRed.IsDefault() {
		t.Error("ColorRed should not be default")
	}
}
