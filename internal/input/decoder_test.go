package input

import (
	"testing"
	"time"

	"termtask/internal/input/key"
)

// pause marks a gap in the input stream: the next bounded read times
// out instead of returning a byte.
type pause struct{}

// scriptSource replays a scripted mix of bytes and pauses.
type scriptSource struct {
	script []any
}

func newScript(items ...any) *scriptSource {
	return &scriptSource{script: items}
}

func (s *scriptSource) next() (byte, bool) {
	for len(s.script) > 0 {
		item := s.script[0]
		s.script = s.script[1:]
		switch v := item.(type) {
		case byte:
			return v, true
		case pause:
			return 0, false
		}
	}
	return 0, false
}

func (s *scriptSource) ReadByte() (byte, error) {
	b, ok := s.next()
	if !ok {
		return 0, ErrClosed
	}
	return b, nil
}

func (s *scriptSource) ReadByteTimeout(time.Duration) (byte, bool, error) {
	if len(s.script) == 0 {
		return 0, false, nil
	}
	b, ok := s.next()
	return b, ok, nil
}

func bytesOf(s string) []any {
	items := make([]any, len(s))
	for i := 0; i < len(s); i++ {
		items[i] = s[i]
	}
	return items
}

func readOne(t *testing.T, items ...any) key.Event {
	t.Helper()
	d := NewDecoder(newScript(items...))
	ev, err := d.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent error: %v", err)
	}
	return ev
}

func TestDecodePlainRune(t *testing.T) {
	ev := readOne(t, byte('q'))
	if !ev.IsRune() || ev.Rune != 'q' {
		t.Errorf("got %+v, want rune 'q'", ev)
	}
}

func TestDecodeUTF8Rune(t *testing.T) {
	d := NewDecoder(newScript(bytesOf("世")...))
	ev, err := d.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent error: %v", err)
	}
	if ev.Rune != '世' {
		t.Errorf("got %q, want '世'", ev.Rune)
	}
}

func TestDecodeControlChords(t *testing.T) {
	tests := []struct {
		b    byte
		rune rune
	}{
		{0x01, 'a'},
		{0x14, 't'},
		{0x1a, 'z'},
	}
	for _, tt := range tests {
		ev := readOne(t, tt.b)
		if !ev.Modifiers.HasCtrl() || ev.Rune != tt.rune {
			t.Errorf("byte %#x = %+v, want Ctrl+%q", tt.b, ev, tt.rune)
		}
	}
}

func TestDecodeSpecialBytes(t *testing.T) {
	tests := []struct {
		b   byte
		key key.Key
	}{
		{'\r', key.KeyEnter},
		{'\n', key.KeyEnter},
		{'\t', key.KeyTab},
		{0x7f, key.KeyBackspace},
		{0x08, key.KeyBackspace},
	}
	for _, tt := range tests {
		ev := readOne(t, tt.b)
		if ev.Key != tt.key {
			t.Errorf("byte %#x = %v, want %v", tt.b, ev.Key, tt.key)
		}
	}
}

func TestDecodeLoneEscape(t *testing.T) {
	// ESC followed by silence resolves to the Escape key.
	ev := readOne(t, byte(0x1b), pause{})
	if ev.Key != key.KeyEscape {
		t.Errorf("got %v, want Escape", ev.Key)
	}
}

func TestDecodeArrowKeys(t *testing.T) {
	tests := []struct {
		final byte
		key   key.Key
	}{
		{'A', key.KeyUp},
		{'B', key.KeyDown},
		{'C', key.KeyRight},
		{'D', key.KeyLeft},
		{'H', key.KeyHome},
		{'F', key.KeyEnd},
	}
	for _, tt := range tests {
		ev := readOne(t, byte(0x1b), byte('['), tt.final)
		if ev.Key != tt.key {
			t.Errorf("CSI %c = %v, want %v", tt.final, ev.Key, tt.key)
		}
		// SS3 variants produced by application cursor mode.
		ev = readOne(t, byte(0x1b), byte('O'), tt.final)
		if ev.Key != tt.key {
			t.Errorf("SS3 %c = %v, want %v", tt.final, ev.Key, tt.key)
		}
	}
}

func TestDecodeTildeSequences(t *testing.T) {
	tests := []struct {
		param string
		key   key.Key
	}{
		{"3", key.KeyDelete},
		{"5", key.KeyPageUp},
		{"6", key.KeyPageDown},
		{"1", key.KeyHome},
		{"4", key.KeyEnd},
		{"15", key.KeyF5},
		{"24", key.KeyF12},
	}
	for _, tt := range tests {
		items := []any{byte(0x1b), byte('[')}
		items = append(items, bytesOf(tt.param)...)
		items = append(items, byte('~'))
		ev := readOne(t, items...)
		if ev.Key != tt.key {
			t.Errorf("CSI %s~ = %v, want %v", tt.param, ev.Key, tt.key)
		}
	}
}

func TestDecodeModifiedArrow(t *testing.T) {
	// CSI 1;5A is Ctrl+Up.
	items := []any{byte(0x1b), byte('[')}
	items = append(items, bytesOf("1;5")...)
	items = append(items, byte('A'))
	ev := readOne(t, items...)
	if ev.Key != key.KeyUp || !ev.Modifiers.HasCtrl() {
		t.Errorf("CSI 1;5A = %+v, want Ctrl+Up", ev)
	}
}

func TestDecodeAltKey(t *testing.T) {
	ev := readOne(t, byte(0x1b), byte('x'))
	if !ev.Modifiers.HasAlt() || ev.Rune != 'x' {
		t.Errorf("ESC x = %+v, want Alt+x", ev)
	}
}

func TestDecodeSS3FunctionKeys(t *testing.T) {
	for i, final := range []byte{'P', 'Q', 'R', 'S'} {
		ev := readOne(t, byte(0x1b), byte('O'), final)
		if ev.Key != key.KeyF1+key.Key(i) {
			t.Errorf("SS3 %c = %v, want F%d", final, ev.Key, i+1)
		}
	}
}

func TestDecodeTruncatedCSI(t *testing.T) {
	// A sequence cut off mid-flight falls back to Escape.
	ev := readOne(t, byte(0x1b), byte('['), pause{})
	if ev.Key != key.KeyEscape {
		t.Errorf("truncated CSI = %v, want Escape", ev.Key)
	}
}

func TestDecodeSourceClosed(t *testing.T) {
	d := NewDecoder(newScript())
	if _, err := d.ReadEvent(); err != ErrClosed {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestDecodeSequenceStream(t *testing.T) {
	// Multiple events decoded in order from one stream.
	items := []any{byte('a'), byte(0x1b), byte('['), byte('B'), byte('\r')}
	d := NewDecoder(newScript(items...))

	want := []key.Event{
		key.NewRuneEvent('a', key.ModNone),
		key.NewSpecialEvent(key.KeyDown, key.ModNone),
		key.NewSpecialEvent(key.KeyEnter, key.ModNone),
	}
	for i, w := range want {
		ev, err := d.ReadEvent()
		if err != nil {
			t.Fatalf("event %d error: %v", i, err)
		}
		if !ev.Matches(w) {
			t.Errorf("event %d = %+v, want %+v", i, ev, w)
		}
	}
}
