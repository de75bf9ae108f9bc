// internal/window/window.go
package window

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrOverflow is returned when bytes do not fit into the free space of a window
var ErrOverflow = errors.New("window overflow")

// Window is a fixed-capacity byte buffer whose active bytes always start at index 0.
// Consumed bytes are removed from the front and the remainder shifts forward.
type Window struct {
	buf []byte
	n   int
}

// New creates an empty window with the given capacity
func New(capacity int) *Window {
	if capacity < 0 {
		capacity = 0
	}
	return &Window{buf: make([]byte, capacity)}
}

// Len returns the number of active bytes
func (w *Window) Len() int { return w.n }

// Cap returns the fixed capacity
func (w *Window) Cap() int { return len(w.buf) }

// Free returns the remaining free space
func (w *Window) Free() int { return len(w.buf) - w.n }

// Bytes returns the active bytes. The slice aliases the window and is only valid
// until the next mutating call.
func (w *Window) Bytes() []byte { return w.buf[:w.n] }

// Reset drops all active bytes
func (w *Window) Reset() { w.n = 0 }

// Write appends p after the active bytes. If p does not fit the window is left
// unchanged and ErrOverflow is returned.
func (w *Window) Write(p []byte) error {
	if len(p) > w.Free() {
		return fmt.Errorf("%w: need %d bytes, %d free of %d", ErrOverflow, len(p), w.Free(), w.Cap())
	}
	w.n += copy(w.buf[w.n:], p)
	return nil
}

// AppendTo appends this window's active bytes to other without consuming them.
func (w *Window) AppendTo(other *Window) error {
	return other.Write(w.Bytes())
}

// MoveTo overwrites other with up to other.Cap() bytes taken from the front of
// this window, shifts the remainder forward and returns the number of bytes moved.
func (w *Window) MoveTo(other *Window) int {
	k := w.n
	if k > other.Cap() {
		k = other.Cap()
	}
	other.n = copy(other.buf, w.buf[:k])
	w.Discard(k)
	return k
}

// Discard removes up to k bytes from the front
func (w *Window) Discard(k int) {
	if k <= 0 {
		return
	}
	if k >= w.n {
		w.n = 0
		return
	}
	copy(w.buf, w.buf[k:w.n])
	w.n -= k
}

// IndexByte returns the index of the first c among the active bytes, or -1
func (w *Window) IndexByte(c byte) int {
	return bytes.IndexByte(w.Bytes(), c)
}

// Fill performs a single Read from r into the free space.
// A full window yields ErrOverflow without touching r.
func (w *Window) Fill(r io.Reader) (int, error) {
	if w.Free() == 0 {
		return 0, fmt.Errorf("%w: window full (%d bytes)", ErrOverflow, w.Cap())
	}
	k, err := r.Read(w.buf[w.n:])
	if k > 0 {
		w.n += k
	}
	return k, err
}
