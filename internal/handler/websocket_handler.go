// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/model"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/utils"
	"weighbridge-service/pkg/driver"
)

// WebSocketHandler streams device events to WebSocket clients
type WebSocketHandler struct {
	upgrader       websocket.Upgrader
	connections    *ConnectionManager
	sessions       *session.Manager
	events         <-chan model.DeviceEvent
	config         config.WebSocketConfig
	commandTimeout time.Duration
	logger         *utils.ServiceLogger
}

// inboundMessage is a message sent by a client
type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewWebSocketHandler creates a new WebSocket handler subscribed to bus
func NewWebSocketHandler(sessions *session.Manager, bus *EventBus, cfg *config.Config, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		connections:    NewConnectionManager(),
		sessions:       sessions,
		events:         bus.Subscribe(),
		config:         cfg.WebSocket,
		commandTimeout: cfg.Device.CommandTimeout,
		logger:         utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// Run forwards bus events to clients until the bus stops, then disconnects everyone
func (h *WebSocketHandler) Run() {
	for event := range h.events {
		h.BroadcastDeviceEvent(event)
	}
	h.connections.CloseAll()
}

// HandleDeviceConnection streams the events of one device
// @Summary Device live status stream
// @Description Upgrade to a WebSocket receiving device_event messages for one device
// @Tags WebSocket
// @Param code path string true "Device code"
// @Success 101 "Switching protocols"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Router /ws/devices/{code} [get]
func (h *WebSocketHandler) HandleDeviceConnection(c *gin.Context) {
	code := c.Param("code")
	s, err := h.sessions.Get(code)
	if err != nil {
		utils.DeviceErrorResponse(c, "Device not found", err)
		return
	}

	client := h.accept(c, code)
	if client == nil {
		return
	}
	h.sendMessage(client, &WebSocketMessage{
		Type:      "device_state",
		Data:      s.State(),
		Timestamp: time.Now(),
	})
}

// HandleEventConnection streams the events of every device
// @Summary All-device event stream
// @Tags WebSocket
// @Success 101 "Switching protocols"
// @Router /ws/events [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	h.accept(c, "")
}

func (h *WebSocketHandler) accept(c *gin.Context, deviceCode string) *Client {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return nil
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, h.config.SendBuffer),
		DeviceCode:  deviceCode,
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("device_code", deviceCode),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
	return client
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	readTimeout := 2 * h.config.PingInterval
	client.Connection.SetReadDeadline(time.Now().Add(readTimeout))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message inboundMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "", "invalid message")
			continue
		}
		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warn("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleClientMessage(client *Client, message *inboundMessage) {
	switch message.Type {
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	case "command":
		if client.DeviceCode == "" {
			h.sendError(client, message.RequestID, "command only available on device connections")
			return
		}
		var req model.CommandRequest
		if err := json.Unmarshal(message.Data, &req); err != nil || req.Token == "" {
			h.sendError(client, message.RequestID, "token is required")
			return
		}
		go h.executeCommand(client, message.RequestID, req)
	default:
		h.sendError(client, message.RequestID, "unknown message type: "+message.Type)
	}
}

func (h *WebSocketHandler) executeCommand(client *Client, requestID string, req model.CommandRequest) {
	s, err := h.sessions.Get(client.DeviceCode)
	if err != nil {
		h.sendError(client, requestID, err.Error())
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		h.sendError(client, requestID, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.commandTimeout)
	defer cancel()

	result, err := s.ExecuteCommand(ctx, role, driver.Command{Token: req.Token, Text: req.Text})

	data := gin.H{"token": req.Token, "success": err == nil, "result": result}
	if err != nil {
		data["error"] = err.Error()
	}
	h.sendMessage(client, &WebSocketMessage{
		Type:      "command_result",
		Data:      data,
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	if !h.connections.Send(client, messageBytes) {
		h.logger.Warn("Client gone or send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

func (h *WebSocketHandler) sendError(client *Client, requestID, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      gin.H{"error": errorMsg},
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

// BroadcastDeviceEvent sends event to the clients following its device
func (h *WebSocketHandler) BroadcastDeviceEvent(event model.DeviceEvent) {
	messageBytes, err := json.Marshal(&WebSocketMessage{
		Type:      "device_event",
		Data:      event,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	for _, id := range h.connections.Deliver(event.DeviceCode, messageBytes) {
		h.logger.Warn("Client send channel full during broadcast", zap.String("client_id", id))
	}
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
