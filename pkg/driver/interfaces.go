// pkg/driver/interfaces.go
package driver

import (
	"context"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/window"
)

// Link is the byte-level channel an adapter uses to talk to its device.
// A Link is only valid while the owning session holds its lock for the
// current command, so adapters must not retain it across calls to Execute.
type Link interface {
	// Open connects the underlying transport if it is not connected
	Open(ctx context.Context) error

	// Write queues bytes for sending; nothing hits the wire until Flush or Read
	Write(p []byte) error
	Flush(ctx context.Context) error

	// InCount flushes pending output and returns how many bytes are buffered
	InCount(ctx context.Context) (int, error)

	// Read receives into target, moving at most target.Cap() bytes
	Read(ctx context.Context, target *window.Window) (int, error)

	// Reset closes and reopens the transport, dropping buffered bytes
	Reset(ctx context.Context) error
}

// Adapter implements one device protocol variant on top of a Link.
// Protocol problems are reported through the result header; a returned
// error always means the transport failed.
type Adapter interface {
	Role() model.Role
	Execute(ctx context.Context, cmd Command) (Result, error)
}

// ResultCallback receives polling results on the scheduler goroutine
type ResultCallback func(Result)
