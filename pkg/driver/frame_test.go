package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weighbridge-service/internal/window"
)

// bufferedLink serves Read from a fixed byte queue and counts the calls
// that found the queue empty.
type bufferedLink struct {
	queue  []byte
	starve int
}

func (l *bufferedLink) Open(ctx context.Context) error  { return nil }
func (l *bufferedLink) Write(p []byte) error            { return nil }
func (l *bufferedLink) Flush(ctx context.Context) error { return nil }
func (l *bufferedLink) Reset(ctx context.Context) error { return nil }

func (l *bufferedLink) InCount(ctx context.Context) (int, error) { return len(l.queue), nil }

func (l *bufferedLink) Read(ctx context.Context, target *window.Window) (int, error) {
	if len(l.queue) == 0 {
		l.starve++
		return 0, context.DeadlineExceeded
	}
	k := min(target.Cap(), len(l.queue))
	target.Reset()
	target.Write(l.queue[:k])
	l.queue = l.queue[k:]
	return k, nil
}

func TestReadFrame_LeavesFollowingFrameInLink(t *testing.T) {
	link := &bufferedLink{queue: []byte("xx<first>\r\n<second>")}
	frameLen := DelimitedFrame('<', '>')

	frame := window.New(32)
	require.NoError(t, ReadFrame(context.Background(), link, frame, frameLen))
	assert.Equal(t, "<first>", string(frame.Bytes()))
	assert.Equal(t, "\r\n<second>", string(link.queue))

	frame.Reset()
	require.NoError(t, ReadFrame(context.Background(), link, frame, frameLen))
	assert.Equal(t, "<second>", string(frame.Bytes()))
	assert.Empty(t, link.queue)
	assert.Zero(t, link.starve)
}

func TestReadFrame_LengthPrefixedReadsExactly(t *testing.T) {
	// one length byte followed by that many payload bytes
	link := &bufferedLink{queue: []byte{3, 'a', 'b', 'c', 2, 'd', 'e'}}
	frameLen := func(w *window.Window) int {
		if w.Len() == 0 {
			return 0
		}
		return 1 + int(w.Bytes()[0])
	}

	frame := window.New(16)
	require.NoError(t, ReadFrame(context.Background(), link, frame, frameLen))
	assert.Equal(t, []byte{3, 'a', 'b', 'c'}, frame.Bytes())
	assert.Equal(t, []byte{2, 'd', 'e'}, link.queue)
}

func TestReadFrame_DeclaredLengthBeyondWindow(t *testing.T) {
	link := &bufferedLink{queue: []byte{200, 'a'}}
	frameLen := func(w *window.Window) int {
		if w.Len() == 0 {
			return 0
		}
		return 1 + int(w.Bytes()[0])
	}

	err := ReadFrame(context.Background(), link, window.New(16), frameLen)
	require.ErrorIs(t, err, window.ErrOverflow)
	assert.Zero(t, link.starve, "overflow is reported without waiting for the rest")
}

func TestReadFrame_NoEndWithinWindow(t *testing.T) {
	link := &bufferedLink{queue: []byte("<abcdefgh")}

	err := ReadFrame(context.Background(), link, window.New(4), DelimitedFrame('<', '>'))
	require.ErrorIs(t, err, window.ErrOverflow)
}

func TestReadFrame_LinkErrorPropagates(t *testing.T) {
	link := &bufferedLink{queue: []byte("<ab")}

	err := ReadFrame(context.Background(), link, window.New(16), DelimitedFrame('<', '>'))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, link.starve)
}
