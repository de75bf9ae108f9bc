// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event pushed to live subscribers
type EventType string

const (
	EventDeviceOpened   EventType = "DEVICE_OPENED"
	EventDeviceClosed   EventType = "DEVICE_CLOSED"
	EventCommandResult  EventType = "COMMAND_RESULT"
	EventPollingResult  EventType = "POLLING_RESULT"
	EventPollingStarted EventType = "POLLING_STARTED"
	EventPollingStopped EventType = "POLLING_STOPPED"
)

// DeviceEvent is a single live-status message for one device
type DeviceEvent struct {
	ID         uuid.UUID   `json:"id"`
	EventType  EventType   `json:"event_type"`
	DeviceCode string      `json:"device_code"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Severity   string      `json:"severity"` // INFO, WARNING, ERROR
}

// NewDeviceEvent creates an event stamped with a fresh id and the current time
func NewDeviceEvent(eventType EventType, code string, data interface{}) DeviceEvent {
	return DeviceEvent{
		ID:         uuid.New(),
		EventType:  eventType,
		DeviceCode: code,
		Data:       data,
		Timestamp:  time.Now(),
		Severity:   "INFO",
	}
}
