// internal/model/errors.go
package model

import "errors"

// Error kinds surfaced by sessions and transports. Protocol-level problems are
// never returned as errors; adapters report them through the result header.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrTransport         = errors.New("transport error")
	ErrTimeout           = errors.New("timeout")
	ErrNotImplemented    = errors.New("not implemented")
	ErrCapabilityMissing = errors.New("capability missing")
	ErrDeviceNotFound    = errors.New("device not found")
)
