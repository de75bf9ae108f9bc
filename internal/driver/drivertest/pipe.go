// internal/driver/drivertest/pipe.go
package drivertest

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/transport"
)

// Device is the far end of an in-memory link, played by the test
type Device struct {
	net.Conn
	t *testing.T
}

// NewLink returns an open transport wired to a simulated device over net.Pipe
func NewLink(t *testing.T, timeout time.Duration) (*transport.Transport, *Device) {
	t.Helper()

	client, server := net.Pipe()
	dial := func(ctx context.Context, ep transport.Endpoint, d time.Duration) (transport.Conn, error) {
		return client, nil
	}

	tr := transport.New(
		transport.Endpoint{Mode: transport.ModeClient, Host: "sim", Port: 1},
		zap.NewNop(),
		transport.WithDialer(dial),
		transport.WithTimeout(timeout),
	)
	require.NoError(t, tr.Open(context.Background()))

	t.Cleanup(func() {
		tr.Close()
		server.Close()
	})
	return tr, &Device{Conn: server, t: t}
}

// Expect reads exactly len(want) bytes and asserts they match
func (d *Device) Expect(want []byte) {
	d.t.Helper()
	got := make([]byte, len(want))
	d.Conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := readFull(d.Conn, got)
	require.NoError(d.t, err)
	require.Equal(d.t, want, got)
}

// Reply writes raw bytes to the link
func (d *Device) Reply(p []byte) {
	d.t.Helper()
	d.Conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := d.Conn.Write(p)
	require.NoError(d.t, err)
}

// Serve answers each request produced by read with respond until the pipe closes.
// It runs in the caller's goroutine.
func (d *Device) Serve(read func(net.Conn) ([]byte, error), respond func(req []byte) []byte) {
	for {
		req, err := read(d.Conn)
		if err != nil {
			return
		}
		if resp := respond(req); resp != nil {
			if _, err := d.Conn.Write(resp); err != nil {
				return
			}
		}
	}
}

func readFull(c net.Conn, p []byte) (int, error) {
	n := 0
	for n < len(p) {
		k, err := c.Read(p[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
