package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/window"
)

func TestOpen_ServerModeNotImplemented(t *testing.T) {
	ep, err := Configure(model.PortTypeTCP, "listen:9999")
	require.NoError(t, err)

	tr := newTestTransport(t, ep)
	err = tr.Open(context.Background())

	require.ErrorIs(t, err, model.ErrNotImplemented)
	assert.False(t, tr.Connected())
}

func TestOpenClose_Idempotent(t *testing.T) {
	require := require.New(t)
	p := newPeer(t, silent)
	tr := newTestTransport(t, p.endpoint())

	require.NoError(tr.Open(context.Background()))
	require.NoError(tr.Open(context.Background()))
	require.True(tr.Connected())
	require.Equal(int64(1), tr.Stats().Reconnects)

	require.NoError(tr.Close())
	require.NoError(tr.Close())
	require.False(tr.Connected())
}

func TestOpen_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tr := newTestTransport(t, Endpoint{Mode: ModeClient, Host: "127.0.0.1", Port: port}, WithTimeout(time.Second))
	err = tr.Open(context.Background())

	require.ErrorIs(t, err, model.ErrTransport)
	assert.False(t, tr.Connected())
	assert.Equal(t, int64(1), tr.Stats().ErrorCount)
}

func TestWriteFlushRead_RoundTrip(t *testing.T) {
	require := require.New(t)
	p := newPeer(t, echo)
	tr := openTransport(t, p.endpoint(), WithTimeout(2*time.Second))
	ctx := context.Background()

	require.NoError(tr.Write([]byte("<RM>")))
	require.NoError(tr.Write([]byte("\r\n")))

	target := window.New(16)
	got := make([]byte, 0, 6)
	for len(got) < 6 {
		n, err := tr.Read(ctx, target)
		require.NoError(err)
		require.Equal(n, target.Len())
		got = append(got, target.Bytes()...)
	}

	require.Equal([]byte("<RM>\r\n"), got)
	require.Equal(int64(6), tr.Stats().BytesWritten)
	require.Equal(int64(6), tr.Stats().BytesRead)
}

func TestRead_MovesAtMostTargetCapacity(t *testing.T) {
	require := require.New(t)
	p := newPeer(t, func(c net.Conn) {
		c.Write([]byte("ABCDEFGH"))
		silent(c)
	})
	tr := openTransport(t, p.endpoint(), WithTimeout(2*time.Second))
	ctx := context.Background()

	require.Eventually(func() bool {
		n, err := tr.InCount(ctx)
		return err == nil && n == 8
	}, 2*time.Second, 10*time.Millisecond)

	target := window.New(5)
	n, err := tr.Read(ctx, target)
	require.NoError(err)
	require.Equal(5, n)
	require.Equal([]byte("ABCDE"), target.Bytes())

	count, err := tr.InCount(ctx)
	require.NoError(err)
	require.Equal(3, count)
}

func TestRead_TopsUpPartialWindow(t *testing.T) {
	require := require.New(t)
	p := newPeer(t, func(c net.Conn) {
		c.Write([]byte("ABC"))
		trigger := make([]byte, 1)
		if _, err := io.ReadFull(c, trigger); err != nil {
			return
		}
		c.Write([]byte("DE"))
		silent(c)
	})
	tr := openTransport(t, p.endpoint(), WithTimeout(2*time.Second))
	ctx := context.Background()

	require.Eventually(func() bool {
		n, err := tr.InCount(ctx)
		return err == nil && n == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(tr.Write([]byte("x")))
	target := window.New(5)
	n, err := tr.Read(ctx, target)
	require.NoError(err)
	require.Equal(5, n, "pending output is flushed and the receive waits for the rest")
	require.Equal([]byte("ABCDE"), target.Bytes())
}

func TestRead_PartialWindowTimeoutClosesConnection(t *testing.T) {
	p := newPeer(t, func(c net.Conn) {
		c.Write([]byte("ABC"))
		silent(c)
	})
	tr := openTransport(t, p.endpoint(), WithTimeout(100*time.Millisecond))
	ctx := context.Background()

	require.Eventually(t, func() bool {
		n, err := tr.InCount(ctx)
		return err == nil && n == 3
	}, 2*time.Second, 10*time.Millisecond)

	n, err := tr.Read(ctx, window.New(8))
	require.ErrorIs(t, err, model.ErrTimeout)
	assert.Zero(t, n)
	assert.False(t, tr.Connected())
}

func TestFlush_TimeoutClosesConnection(t *testing.T) {
	require := require.New(t)
	tr := openTransport(t, Endpoint{Mode: ModeClient, Host: "scale", Port: 1},
		WithDialer(pipeDialer(t)),
		WithTimeout(100*time.Millisecond),
	)

	require.NoError(tr.Write([]byte("<RM>")))

	start := time.Now()
	err := tr.Flush(context.Background())

	require.ErrorIs(err, model.ErrTimeout)
	require.False(tr.Connected())
	require.Less(time.Since(start), 2*time.Second)

	count, err := tr.InCount(context.Background())
	require.NoError(err)
	require.Zero(count, "output and input are dropped on close")
}

func TestFlush_ContextCancelAbortsWrite(t *testing.T) {
	tr := openTransport(t, Endpoint{Mode: ModeClient, Host: "scale", Port: 1},
		WithDialer(pipeDialer(t)),
		WithTimeout(10*time.Second),
	)
	require.NoError(t, tr.Write([]byte("x")))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := tr.Flush(ctx)
	require.ErrorIs(t, err, model.ErrTransport)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, tr.Connected())
}

func TestRead_TimeoutClosesConnection(t *testing.T) {
	p := newPeer(t, silent)
	tr := openTransport(t, p.endpoint(), WithTimeout(100*time.Millisecond))

	n, err := tr.Read(context.Background(), window.New(8))

	require.ErrorIs(t, err, model.ErrTimeout)
	assert.Zero(t, n)
	assert.False(t, tr.Connected())
}

func TestRead_ContextDeadlineWins(t *testing.T) {
	p := newPeer(t, silent)
	tr := openTransport(t, p.endpoint(), WithTimeout(10*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tr.Read(ctx, window.New(8))

	require.ErrorIs(t, err, model.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRead_PeerClosed(t *testing.T) {
	p := newPeer(t, func(c net.Conn) {})
	tr := openTransport(t, p.endpoint(), WithTimeout(2*time.Second))

	_, err := tr.Read(context.Background(), window.New(8))

	require.ErrorIs(t, err, model.ErrTransport)
	assert.False(t, tr.Connected())
}

func TestRead_OnClosedTransport(t *testing.T) {
	p := newPeer(t, silent)
	tr := newTestTransport(t, p.endpoint())

	_, err := tr.Read(context.Background(), window.New(8))
	require.ErrorIs(t, err, model.ErrTransport)
}

func TestWrite_OverflowFailsLoudly(t *testing.T) {
	tr := newTestTransport(t, Endpoint{Mode: ModeClient, Host: "scale", Port: 1}, WithBufferSize(4))

	require.NoError(t, tr.Write([]byte("abcd")))
	require.ErrorIs(t, tr.Write([]byte("e")), window.ErrOverflow)
}

func TestReset_Reconnects(t *testing.T) {
	require := require.New(t)
	p := newPeer(t, silent)
	tr := openTransport(t, p.endpoint())

	require.NoError(tr.Reset(context.Background()))
	require.True(tr.Connected())
	require.Equal(int64(2), tr.Stats().Reconnects)
}

func TestConfiguredEndpointDials(t *testing.T) {
	p := newPeer(t, silent)
	ep, err := Configure(model.PortTypeTCP, p.param())
	require.NoError(t, err)

	tr := openTransport(t, ep)
	assert.True(t, tr.Connected())
	assert.Equal(t, DefaultTimeout, tr.Timeout())
}

func TestResolveHost(t *testing.T) {
	ip, err := resolveHost(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)

	ip, err = resolveHost(context.Background(), "localhost")
	require.NoError(t, err)
	assert.NotNil(t, net.ParseIP(ip).To4(), "an IPv4 address is preferred for localhost")
}
