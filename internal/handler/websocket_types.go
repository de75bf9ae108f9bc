// internal/handler/websocket_types.go
package handler

import (
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a WebSocket client. An empty DeviceCode receives events
// for every device.
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	DeviceCode  string          `json:"device_code,omitempty"`
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager tracks connected clients
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ID] = client
}

// Unregister removes a client and closes its send channel. Repeated calls are no-ops.
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// Deliver queues message for every client following deviceCode, including
// clients following all devices. It returns the clients whose buffer was full.
func (cm *ConnectionManager) Deliver(deviceCode string, message []byte) []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var dropped []string
	for _, client := range cm.clients {
		if client.DeviceCode != "" && client.DeviceCode != deviceCode {
			continue
		}
		select {
		case client.Send <- message:
		default:
			dropped = append(dropped, client.ID)
		}
	}
	return dropped
}

// Send queues message for one client unless it has been unregistered
func (cm *ConnectionManager) Send(client *Client, message []byte) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if _, ok := cm.clients[client.ID]; !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}

// CloseAll unregisters every client
func (cm *ConnectionManager) CloseAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for id, client := range cm.clients {
		delete(cm.clients, id)
		close(client.Send)
	}
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		ByDevice:         make(map[string]int),
		Clients:          make([]*Client, 0, len(cm.clients)),
	}

	for _, client := range cm.clients {
		key := client.DeviceCode
		if key == "" {
			key = "*"
		}
		stats.ByDevice[key]++
		stats.Clients = append(stats.Clients, client)
	}
	sort.Slice(stats.Clients, func(i, j int) bool {
		return stats.Clients[i].ConnectedAt.Before(stats.Clients[j].ConnectedAt)
	})

	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ByDevice         map[string]int `json:"by_device"`
	Clients          []*Client      `json:"clients"`
}
