// internal/transport/transport.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/window"
)

const (
	// DefaultTimeout bounds connect, send and receive
	DefaultTimeout = 10 * time.Second
	// DefaultBufferSize is the capacity of each byte window
	DefaultBufferSize = 4096

	probeTimeout = time.Millisecond
)

// Stats provides transport-level statistics
type Stats struct {
	BytesWritten int64     `json:"bytes_written"`
	BytesRead    int64     `json:"bytes_read"`
	ErrorCount   int64     `json:"error_count"`
	Reconnects   int64     `json:"reconnects"`
	LastActivity time.Time `json:"last_activity"`
	IsConnected  bool      `json:"is_connected"`
}

// Option configures a Transport
type Option func(*Transport)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithBufferSize overrides the capacity of the input and output windows
func WithBufferSize(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.bufferSize = n
		}
	}
}

// WithDialer replaces DefaultDialer
func WithDialer(d Dialer) Option {
	return func(t *Transport) {
		if d != nil {
			t.dial = d
		}
	}
}

// Transport is a buffered, timeout-bounded byte channel to one device.
// Callers must serialize Open, Close and all I/O; the owning session does
// this with its lock. Connected and Stats are safe from any goroutine.
type Transport struct {
	endpoint   Endpoint
	timeout    time.Duration
	bufferSize int
	dial       Dialer
	logger     *zap.Logger

	conn      Conn
	in        *window.Window
	out       *window.Window
	connected atomic.Bool

	statsMu sync.Mutex
	stats   Stats
}

// New creates a closed transport for ep
func New(ep Endpoint, logger *zap.Logger, opts ...Option) *Transport {
	t := &Transport{
		endpoint:   ep,
		timeout:    DefaultTimeout,
		bufferSize: DefaultBufferSize,
		dial:       DefaultDialer,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.in = window.New(t.bufferSize)
	t.out = window.New(t.bufferSize)
	t.logger = logger.With(
		zap.String("component", "transport"),
		zap.String("mode", ep.Mode.String()),
		zap.String("endpoint", ep.String()),
	)
	return t
}

// Endpoint returns the parsed connection descriptor
func (t *Transport) Endpoint() Endpoint { return t.endpoint }

// Timeout returns the per-operation bound
func (t *Transport) Timeout() time.Duration { return t.timeout }

// Connected reports whether a connection is established
func (t *Transport) Connected() bool { return t.connected.Load() }

// Stats returns a snapshot of the counters
func (t *Transport) Stats() Stats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	s := t.stats
	s.IsConnected = t.Connected()
	return s
}

// Open connects to the endpoint. It is a no-op when already connected.
func (t *Transport) Open(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	if t.endpoint.Mode == ModeServer {
		return fmt.Errorf("%w: server mode on port %d", model.ErrNotImplemented, t.endpoint.Port)
	}

	t.logger.Debug("Opening connection", zap.Duration("timeout", t.timeout))

	conn, err := t.dial(ctx, t.endpoint, t.timeout)
	if err != nil {
		t.countError()
		t.logger.Warn("Failed to open connection", zap.Error(err))
		return fmt.Errorf("%w: %w", model.ErrTransport, err)
	}

	t.conn = conn
	t.in.Reset()
	t.out.Reset()
	t.connected.Store(true)

	t.statsMu.Lock()
	t.stats.Reconnects++
	t.stats.LastActivity = time.Now()
	t.statsMu.Unlock()

	t.logger.Info("Connection opened")
	return nil
}

// Close releases the connection and drops buffered bytes. It is a no-op when closed.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.connected.Store(false)
	t.in.Reset()
	t.out.Reset()

	if err != nil {
		t.logger.Warn("Error while closing connection", zap.Error(err))
		return fmt.Errorf("%w: close: %v", model.ErrTransport, err)
	}
	t.logger.Info("Connection closed")
	return nil
}

// Write queues p in the output window. Nothing is sent until Flush.
func (t *Transport) Write(p []byte) error {
	if err := t.out.Write(p); err != nil {
		t.logger.Error("Output window overflow", zap.Int("bytes", len(p)), zap.Error(err))
		return err
	}
	return nil
}

// Flush sends all queued output. The output window is cleared whatever the
// outcome; a timeout or write failure closes the connection.
func (t *Transport) Flush(ctx context.Context) error {
	if t.out.Len() == 0 {
		return nil
	}
	defer t.out.Reset()

	if t.conn == nil {
		return fmt.Errorf("%w: flush on closed connection", model.ErrTransport)
	}

	stop := t.bound(ctx, t.conn.SetWriteDeadline)
	n, err := t.conn.Write(t.out.Bytes())
	stop()

	if err != nil {
		return t.fail(ctx, "flush", err)
	}

	t.statsMu.Lock()
	t.stats.BytesWritten += int64(n)
	t.stats.LastActivity = time.Now()
	t.statsMu.Unlock()

	t.logger.Debug("Output flushed", zap.Int("bytes", n))
	return nil
}

// InCount flushes pending output, probes briefly for newly arrived bytes
// and returns the number of bytes waiting in the input window.
func (t *Transport) InCount(ctx context.Context) (int, error) {
	if err := t.Flush(ctx); err != nil {
		return 0, err
	}
	if err := t.probe(ctx); err != nil {
		return t.in.Len(), err
	}
	return t.in.Len(), nil
}

// Read fills target with up to target.Cap() bytes. When fewer bytes than that
// are buffered, pending output is flushed and one bounded receive tops up the
// input window; a receive timeout closes the connection and returns zero.
// Callers that must not block on bytes already buffered ask for no more than
// they need.
func (t *Transport) Read(ctx context.Context, target *window.Window) (int, error) {
	if t.in.Len() < target.Cap() && t.in.Free() > 0 {
		if err := t.Flush(ctx); err != nil {
			return 0, err
		}
		if t.conn == nil {
			return 0, fmt.Errorf("%w: read on closed connection", model.ErrTransport)
		}

		stop := t.bound(ctx, t.conn.SetReadDeadline)
		k, err := t.in.Fill(t.conn)
		stop()

		if k > 0 {
			t.countRead(k)
		}
		if err != nil && k == 0 {
			return 0, t.fail(ctx, "receive", err)
		}
	}

	return t.in.MoveTo(target), nil
}

// probe reads whatever arrived within probeTimeout for InCount. Running out of
// time is not an error.
func (t *Transport) probe(ctx context.Context) error {
	if t.conn == nil || t.in.Free() == 0 {
		return nil
	}

	t.conn.SetReadDeadline(time.Now().Add(probeTimeout))
	k, err := t.in.Fill(t.conn)
	t.conn.SetReadDeadline(time.Time{})

	if k > 0 {
		t.countRead(k)
	}
	if err != nil && k == 0 && !isTimeout(err) {
		return t.fail(ctx, "probe", err)
	}
	return nil
}

// Reset closes and reopens the connection
func (t *Transport) Reset(ctx context.Context) error {
	if err := t.Close(); err != nil {
		t.logger.Debug("Close during reset failed", zap.Error(err))
	}
	return t.Open(ctx)
}

// bound applies the effective deadline (timeout or ctx deadline, whichever is
// earlier) through set and arranges for ctx cancellation to expire it. The
// returned func clears the deadline.
func (t *Transport) bound(ctx context.Context, set func(time.Time) error) func() {
	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	set(deadline)

	stopAfter := context.AfterFunc(ctx, func() {
		set(time.Unix(1, 0))
	})
	return func() {
		stopAfter()
		set(time.Time{})
	}
}

// fail closes the connection after an I/O error and classifies the error
func (t *Transport) fail(ctx context.Context, op string, err error) error {
	t.countError()
	t.logger.Warn("I/O failed, closing connection", zap.String("op", op), zap.Error(err))
	t.Close()

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %s: %w", model.ErrTransport, op, ctx.Err())
	case isTimeout(err):
		return fmt.Errorf("%w: %s after %s: %w", model.ErrTimeout, op, t.timeout, err)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: %s: connection closed by peer", model.ErrTransport, op)
	default:
		return fmt.Errorf("%w: %s: %w", model.ErrTransport, op, err)
	}
}

func (t *Transport) countRead(k int) {
	t.statsMu.Lock()
	t.stats.BytesRead += int64(k)
	t.stats.LastActivity = time.Now()
	t.statsMu.Unlock()
}

func (t *Transport) countError() {
	t.statsMu.Lock()
	t.stats.ErrorCount++
	t.statsMu.Unlock()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
