package transport

import (
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// peer is a loopback TCP server whose behaviour per accepted connection is
// supplied by the test.
type peer struct {
	ln   net.Listener
	port int
}

func newPeer(t *testing.T, handle func(net.Conn)) *peer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				handle(c)
			}()
		}
	}()

	return &peer{ln: ln, port: ln.Addr().(*net.TCPAddr).Port}
}

func (p *peer) endpoint() Endpoint {
	return Endpoint{Mode: ModeClient, Host: "127.0.0.1", Port: p.port}
}

func (p *peer) param() string {
	return "127.0.0.1:" + strconv.Itoa(p.port)
}

func echo(c net.Conn) { io.Copy(c, c) }

func silent(c net.Conn) { io.Copy(io.Discard, c) }

func newTestTransport(t *testing.T, ep Endpoint, opts ...Option) *Transport {
	t.Helper()
	tr := New(ep, zap.NewNop(), opts...)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func openTransport(t *testing.T, ep Endpoint, opts ...Option) *Transport {
	t.Helper()
	tr := newTestTransport(t, ep, opts...)
	require.NoError(t, tr.Open(context.Background()))
	return tr
}

// pipeDialer hands out the client side of an in-memory pipe whose server side
// is never read, so every write blocks until its deadline.
func pipeDialer(t *testing.T) Dialer {
	return func(ctx context.Context, ep Endpoint, timeout time.Duration) (Conn, error) {
		client, server := net.Pipe()
		t.Cleanup(func() { server.Close() })
		return client, nil
	}
}
