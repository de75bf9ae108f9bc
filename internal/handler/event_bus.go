// internal/handler/event_bus.go
package handler

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

const (
	busBuffer        = 1000
	subscriberBuffer = 100
)

// EventBus fans device events out to subscribers. Publishing never blocks;
// events are dropped when the bus or a subscriber is full.
type EventBus struct {
	subscribers []chan model.DeviceEvent
	events      chan model.DeviceEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan model.DeviceEvent, busBuffer),
		logger: logger.With(zap.String("component", "event_bus")),
	}
}

// Start distributes events until ctx is done, then closes every subscription
func (eb *EventBus) Start(ctx context.Context) {
	defer eb.closeSubscribers()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eb.events:
			eb.distributeEvent(event)
		}
	}
}

// Publish publishes an event
func (eb *EventBus) Publish(event model.DeviceEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
			zap.String("device_code", event.DeviceCode),
		)
	}
}

// Subscribe returns a channel receiving every event
func (eb *EventBus) Subscribe() <-chan model.DeviceEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.DeviceEvent, subscriberBuffer)
	eb.subscribers = append(eb.subscribers, subscriber)
	return subscriber
}

func (eb *EventBus) distributeEvent(event model.DeviceEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, subscriber := range eb.subscribers {
		select {
		case subscriber <- event:
		default:
			// slow subscriber
		}
	}
}

func (eb *EventBus) closeSubscribers() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	for _, subscriber := range eb.subscribers {
		close(subscriber)
	}
	eb.subscribers = nil
}
