// pkg/driver/frame.go
package driver

import (
	"context"
	"fmt"

	"weighbridge-service/internal/window"
)

// FrameLen reports the total length of the frame at the front of w, or 0
// while that length is not yet known. It may discard leading noise from w.
type FrameLen func(w *window.Window) int

// ReadFrame reads from link into frame until frameLen reports a length that is
// fully buffered. Bytes are requested one at a time until the length is known
// and then exactly, so bytes belonging to a following frame stay in the link.
// A frame that cannot fit yields window.ErrOverflow, which adapters report as a
// protocol error rather than a transport failure.
func ReadFrame(ctx context.Context, link Link, frame *window.Window, frameLen FrameLen) error {
	one := window.New(1)
	for {
		n := frameLen(frame)
		switch {
		case n > frame.Cap():
			return fmt.Errorf("%w: frame of %d bytes, window holds %d", window.ErrOverflow, n, frame.Cap())
		case n > 0 && frame.Len() >= n:
			return nil
		case n == 0 && frame.Free() == 0:
			return fmt.Errorf("%w: no frame within %d bytes", window.ErrOverflow, frame.Cap())
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := one
		if n > 0 {
			chunk = window.New(n - frame.Len())
		}
		k, err := link.Read(ctx, chunk)
		if err != nil {
			return err
		}
		if k == 0 {
			continue
		}
		if err := chunk.AppendTo(frame); err != nil {
			return err
		}
	}
}

// DelimitedFrame returns a FrameLen for frames running from start to end
// inclusive. Bytes before start are dropped.
func DelimitedFrame(start, end byte) FrameLen {
	return func(w *window.Window) int {
		if i := w.IndexByte(start); i > 0 {
			w.Discard(i)
		} else if i < 0 {
			w.Reset()
			return 0
		}
		if i := w.IndexByte(end); i > 0 {
			return i + 1
		}
		return 0
	}
}
