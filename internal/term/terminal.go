// Package term owns the raw-mode terminal: it switches the controlling
// terminal into raw mode, feeds input bytes to the key decoder, reports
// the current size, and restores terminal state on shutdown.
package term

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Terminal is a raw-mode handle on the process's controlling terminal.
// It implements input.ByteSource for the key decoder.
type Terminal struct {
	in  *os.File
	out *os.File

	oldState *term.State

	bytes chan byte
	errs  chan error
}

// Open switches the terminal into raw mode and starts the input reader.
func Open() (*Terminal, error) {
	return OpenFiles(os.Stdin, os.Stdout)
}

// OpenFiles is Open with explicit files, for testing against a pty.
func OpenFiles(in, out *os.File) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("input is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}

	t := &Terminal{
		in:       in,
		out:      out,
		oldState: oldState,
		bytes:    make(chan byte, 256),
		errs:     make(chan error, 1),
	}
	go t.readLoop()
	return t, nil
}

// readLoop pumps input bytes into the channel until read fails.
func (t *Terminal) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		for i := 0; i < n; i++ {
			t.bytes <- buf[i]
		}
		if err != nil {
			t.errs <- err
			close(t.bytes)
			return
		}
	}
}

// ReadByte blocks until an input byte is available.
func (t *Terminal) ReadByte() (byte, error) {
	b, ok := <-t.bytes
	if !ok {
		return 0, <-t.errs
	}
	return b, nil
}

// ReadByteTimeout waits up to d for an input byte.
func (t *Terminal) ReadByteTimeout(d time.Duration) (byte, bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case b, ok := <-t.bytes:
		if !ok {
			return 0, false, <-t.errs
		}
		return b, true, nil
	case <-timer.C:
		return 0, false, nil
	}
}

// Size returns the terminal dimensions.
func (t *Terminal) Size() (width, height int, err error) {
	return term.GetSize(int(t.out.Fd()))
}

// Writer returns the terminal output stream for the renderer.
func (t *Terminal) Writer() io.Writer {
	return t.out
}

// Restore returns the terminal to its original mode and makes the
// cursor visible again. Safe to call more than once.
func (t *Terminal) Restore() error {
	// Re-show the cursor and reset attributes before leaving; the
	// renderer may have left the cursor hidden.
	fmt.Fprint(t.out, "\x1b[0m\x1b[?25h")

	if t.oldState == nil {
		return nil
	}
	err := term.Restore(int(t.in.Fd()), t.oldState)
	t.oldState = nil
	return err
}
