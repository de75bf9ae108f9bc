// internal/model/operation.go
package model

import "time"

// CommandRequest asks a device session to run one command
type CommandRequest struct {
	Role  string `json:"role,omitempty"`
	Token string `json:"token" binding:"required"`
	Text  string `json:"text,omitempty"`
}

// PollingRequest asks a device session to start polling a command
type PollingRequest struct {
	Role           string `json:"role,omitempty"`
	Token          string `json:"token" binding:"required"`
	Text           string `json:"text,omitempty"`
	InitialDelayMs int    `json:"initial_delay_ms"`
	IntervalMs     int    `json:"interval_ms"`
}

// Cadence returns the initial delay and interval, falling back to the given
// defaults for non-positive values
func (r PollingRequest) Cadence(defDelay, defInterval time.Duration) (time.Duration, time.Duration) {
	delay, interval := defDelay, defInterval
	if r.InitialDelayMs > 0 {
		delay = time.Duration(r.InitialDelayMs) * time.Millisecond
	}
	if r.IntervalMs > 0 {
		interval = time.Duration(r.IntervalMs) * time.Millisecond
	}
	return delay, interval
}

// DeviceState summarizes a loaded session for API and CLI listings
type DeviceState struct {
	Code       string     `json:"code"`
	DeviceType DeviceType `json:"device_type"`
	ModuleCode string     `json:"module_code"`
	PortType   PortType   `json:"port_type"`
	Endpoint   string     `json:"endpoint,omitempty"`
	Connected  bool       `json:"connected"`
	Polling    bool       `json:"polling"`
}
