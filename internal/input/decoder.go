// Package input decodes terminal byte streams into key events.
//
// Escape-prefixed sequences are disambiguated with a short bounded
// secondary read: a lone ESC byte followed by silence is the Escape
// key, ESC '[' opens a CSI sequence, ESC 'O' an SS3 sequence, and
// ESC followed by any other byte is that key with Alt held.
package input

import (
	"errors"
	"time"
	"unicode/utf8"

	"termtask/internal/input/key"
)

// ByteSource supplies terminal input bytes.
type ByteSource interface {
	// ReadByte blocks until a byte is available.
	ReadByte() (byte, error)
	// ReadByteTimeout waits up to d for a byte. ok is false on timeout.
	ReadByteTimeout(d time.Duration) (b byte, ok bool, err error)
}

// DefaultEscTimeout is the wait used to distinguish a lone Escape key
// from the start of an escape sequence.
const DefaultEscTimeout = 30 * time.Millisecond

// ErrClosed is returned once the byte source is exhausted.
var ErrClosed = errors.New("input source closed")

// Decoder converts raw terminal bytes into key events.
type Decoder struct {
	src        ByteSource
	escTimeout time.Duration
}

// NewDecoder creates a decoder reading from src.
func NewDecoder(src ByteSource) *Decoder {
	return &Decoder{src: src, escTimeout: DefaultEscTimeout}
}

// SetEscTimeout overrides the escape disambiguation wait.
func (d *Decoder) SetEscTimeout(timeout time.Duration) {
	d.escTimeout = timeout
}

// ReadEvent blocks for the next key event.
func (d *Decoder) ReadEvent() (key.Event, error) {
	b, err := d.src.ReadByte()
	if err != nil {
		return key.Event{}, err
	}

	switch {
	case b == 0x1b:
		return d.decodeEscape()
	case b == '\r' || b == '\n':
		return key.NewSpecialEvent(key.KeyEnter, key.ModNone), nil
	case b == '\t':
		return key.NewSpecialEvent(key.KeyTab, key.ModNone), nil
	case b == 0x7f || b == 0x08:
		return key.NewSpecialEvent(key.KeyBackspace, key.ModNone), nil
	case b < 0x20:
		// Ctrl chords arrive as C0 control bytes: Ctrl+A is 0x01.
		return key.NewRuneEvent(rune('a'+b-1), key.ModCtrl), nil
	default:
		return d.decodeRune(b)
	}
}

// decodeEscape resolves what follows an ESC byte: nothing (Escape key),
// a CSI or SS3 sequence, or an Alt-modified key.
func (d *Decoder) decodeEscape() (key.Event, error) {
	b, ok, err := d.src.ReadByteTimeout(d.escTimeout)
	if err != nil {
		return key.Event{}, err
	}
	if !ok {
		return key.NewSpecialEvent(key.KeyEscape, key.ModNone), nil
	}

	switch b {
	case '[':
		return d.decodeCSI()
	case 'O':
		return d.decodeSS3()
	default:
		ev, err := d.decodeByteAsKey(b)
		if err != nil {
			return key.Event{}, err
		}
		ev.Modifiers = ev.Modifiers.With(key.ModAlt)
		return ev, nil
	}
}

// decodeByteAsKey decodes a single non-escape byte the same way the
// top-level read does, for the Alt+key path.
func (d *Decoder) decodeByteAsKey(b byte) (key.Event, error) {
	switch {
	case b == '\r' || b == '\n':
		return key.NewSpecialEvent(key.KeyEnter, key.ModNone), nil
	case b == '\t':
		return key.NewSpecialEvent(key.KeyTab, key.ModNone), nil
	case b == 0x7f || b == 0x08:
		return key.NewSpecialEvent(key.KeyBackspace, key.ModNone), nil
	case b < 0x20:
		return key.NewRuneEvent(rune('a'+b-1), key.ModCtrl), nil
	default:
		return d.decodeRune(b)
	}
}

// decodeCSI reads a CSI sequence (ESC '[' params final) to completion
// and maps it to a key event. Unknown sequences are consumed and
// reported as no key rather than leaking bytes into the stream.
func (d *Decoder) decodeCSI() (key.Event, error) {
	var params []int
	cur := 0
	haveCur := false

	for {
		b, ok, err := d.src.ReadByteTimeout(d.escTimeout)
		if err != nil {
			return key.Event{}, err
		}
		if !ok {
			// Truncated sequence; treat the prefix as Escape.
			return key.NewSpecialEvent(key.KeyEscape, key.ModNone), nil
		}

		switch {
		case b >= '0' && b <= '9':
			cur = cur*10 + int(b-'0')
			haveCur = true
		case b == ';':
			params = append(params, cur)
			cur = 0
			haveCur = false
		case b >= 0x40 && b <= 0x7e:
			if haveCur {
				params = append(params, cur)
			}
			return csiEvent(b, params), nil
		default:
			// Intermediate bytes are ignored.
		}
	}
}

// csiEvent maps a CSI final byte plus parameters to a key event.
func csiEvent(final byte, params []int) key.Event {
	mods := csiModifiers(params)

	switch final {
	case 'A':
		return key.NewSpecialEvent(key.KeyUp, mods)
	case 'B':
		return key.NewSpecialEvent(key.KeyDown, mods)
	case 'C':
		return key.NewSpecialEvent(key.KeyRight, mods)
	case 'D':
		return key.NewSpecialEvent(key.KeyLeft, mods)
	case 'H':
		return key.NewSpecialEvent(key.KeyHome, mods)
	case 'F':
		return key.NewSpecialEvent(key.KeyEnd, mods)
	case 'Z':
		// Back-tab arrives as CSI Z.
		return key.NewSpecialEvent(key.KeyTab, mods.With(key.ModShift))
	case '~':
		if len(params) == 0 {
			return key.Event{}
		}
		switch params[0] {
		case 1, 7:
			return key.NewSpecialEvent(key.KeyHome, mods)
		case 3:
			return key.NewSpecialEvent(key.KeyDelete, mods)
		case 4, 8:
			return key.NewSpecialEvent(key.KeyEnd, mods)
		case 5:
			return key.NewSpecialEvent(key.KeyPageUp, mods)
		case 6:
			return key.NewSpecialEvent(key.KeyPageDown, mods)
		case 11, 12, 13, 14:
			return key.NewSpecialEvent(key.KeyF1+key.Key(params[0]-11), mods)
		case 15:
			return key.NewSpecialEvent(key.KeyF5, mods)
		case 17, 18, 19, 20, 21:
			return key.NewSpecialEvent(key.KeyF6+key.Key(params[0]-17), mods)
		case 23, 24:
			return key.NewSpecialEvent(key.KeyF11+key.Key(params[0]-23), mods)
		}
	}
	return key.Event{}
}

// csiModifiers extracts the xterm modifier parameter: the second
// parameter minus one is a bitfield of shift(1), alt(2), ctrl(4).
func csiModifiers(params []int) key.Modifier {
	if len(params) < 2 {
		return key.ModNone
	}
	bits := params[1] - 1
	var mods key.Modifier
	if bits&1 != 0 {
		mods = mods.With(key.ModShift)
	}
	if bits&2 != 0 {
		mods = mods.With(key.ModAlt)
	}
	if bits&4 != 0 {
		mods = mods.With(key.ModCtrl)
	}
	return mods
}

// decodeSS3 reads the single byte of an SS3 sequence (ESC 'O' x).
func (d *Decoder) decodeSS3() (key.Event, error) {
	b, ok, err := d.src.ReadByteTimeout(d.escTimeout)
	if err != nil {
		return key.Event{}, err
	}
	if !ok {
		return key.NewSpecialEvent(key.KeyEscape, key.ModNone), nil
	}

	switch b {
	case 'A':
		return key.NewSpecialEvent(key.KeyUp, key.ModNone), nil
	case 'B':
		return key.NewSpecialEvent(key.KeyDown, key.ModNone), nil
	case 'C':
		return key.NewSpecialEvent(key.KeyRight, key.ModNone), nil
	case 'D':
		return key.NewSpecialEvent(key.KeyLeft, key.ModNone), nil
	case 'H':
		return key.NewSpecialEvent(key.KeyHome, key.ModNone), nil
	case 'F':
		return key.NewSpecialEvent(key.KeyEnd, key.ModNone), nil
	case 'P', 'Q', 'R', 'S':
		return key.NewSpecialEvent(key.KeyF1+key.Key(b-'P'), key.ModNone), nil
	default:
		return key.Event{}, nil
	}
}

// decodeRune assembles a UTF-8 encoded rune starting with first.
func (d *Decoder) decodeRune(first byte) (key.Event, error) {
	if first < utf8.RuneSelf {
		return key.NewRuneEvent(rune(first), key.ModNone), nil
	}

	buf := []byte{first}
	for !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
		b, ok, err := d.src.ReadByteTimeout(d.escTimeout)
		if err != nil {
			return key.Event{}, err
		}
		if !ok {
			break
		}
		buf = append(buf, b)
	}

	r, _ := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return key.Event{}, nil
	}
	return key.NewRuneEvent(r, key.ModNone), nil
}
