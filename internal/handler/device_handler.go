// internal/handler/device_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/model"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/transport"
	"weighbridge-service/internal/utils"
	"weighbridge-service/pkg/driver"
)

// DeviceHandler handles device-related HTTP requests
type DeviceHandler struct {
	sessions *session.Manager
	bus      *EventBus
	config   config.DeviceConfig
	logger   *utils.ServiceLogger
}

// DeviceDetail is the response of GetDevice
type DeviceDetail struct {
	model.DeviceState
	Options   model.Options   `json:"options,omitempty"`
	Stats     transport.Stats `json:"stats"`
	PollingID string          `json:"polling_id,omitempty"`
}

// PollingResponse is the response of StartPolling
type PollingResponse struct {
	PollingID    string `json:"polling_id"`
	InitialDelay string `json:"initial_delay"`
	Interval     string `json:"interval"`
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(sessions *session.Manager, bus *EventBus, cfg config.DeviceConfig, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		sessions: sessions,
		bus:      bus,
		config:   cfg,
		logger:   utils.NewServiceLogger(logger, "device-handler"),
	}
}

// RegisterRoutes registers device-related routes
func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("", h.ListDevices)

		device := devices.Group("/:code")
		{
			device.GET("", h.GetDevice)
			device.POST("/open", h.OpenDevice)
			device.POST("/close", h.CloseDevice)
			device.POST("/command", h.ExecuteCommand)
			device.POST("/polling", h.StartPolling)
			device.DELETE("/polling", h.StopPolling)
		}
	}
}

// ListDevices lists loaded devices
// @Summary List devices
// @Description Get every loaded device with its connection and polling state
// @Tags Devices
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]model.DeviceState} "Devices retrieved successfully"
// @Router /devices [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	sessions := h.sessions.List()
	states := make([]model.DeviceState, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.State())
	}
	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", states)
}

// GetDevice returns one device
// @Summary Get device
// @Tags Devices
// @Produce json
// @Param code path string true "Device code"
// @Success 200 {object} utils.APIResponse{data=DeviceDetail} "Device retrieved successfully"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Router /devices/{code} [get]
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	detail := DeviceDetail{
		DeviceState: s.State(),
		Options:     s.Descriptor().Options,
		Stats:       s.Stats(),
	}
	if s.IsPolling() {
		detail.PollingID = s.PollingID().String()
	}
	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", detail)
}

// OpenDevice connects a device
// @Summary Open device connection
// @Tags Devices
// @Produce json
// @Param code path string true "Device code"
// @Success 200 {object} utils.APIResponse{data=model.DeviceState} "Device opened"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Failure 501 {object} utils.APIResponse "Server-mode endpoints are not implemented"
// @Failure 502 {object} utils.APIResponse "Device unreachable"
// @Router /devices/{code}/open [post]
func (h *DeviceHandler) OpenDevice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	ctx, cancel := h.commandContext(c)
	defer cancel()

	if err := s.Open(ctx); err != nil {
		requestLogger(c, h.logger).Warn("Failed to open device", zap.String("device_code", s.Code()), zap.Error(err))
		utils.DeviceErrorResponse(c, "Failed to open device", err)
		return
	}

	h.bus.Publish(model.NewDeviceEvent(model.EventDeviceOpened, s.Code(), s.State()))
	utils.SuccessResponse(c, http.StatusOK, "Device opened", s.State())
}

// CloseDevice stops polling and disconnects a device
// @Summary Close device connection
// @Tags Devices
// @Produce json
// @Param code path string true "Device code"
// @Success 200 {object} utils.APIResponse{data=model.DeviceState} "Device closed"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Router /devices/{code}/close [post]
func (h *DeviceHandler) CloseDevice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Close(); err != nil {
		requestLogger(c, h.logger).Warn("Error while closing device", zap.String("device_code", s.Code()), zap.Error(err))
	}

	h.bus.Publish(model.NewDeviceEvent(model.EventDeviceClosed, s.Code(), s.State()))
	utils.SuccessResponse(c, http.StatusOK, "Device closed", s.State())
}

// ExecuteCommand runs one command on a device
// @Summary Execute device command
// @Description Run a protocol command (WEIGH, REGISTER, READ, SHOW, CLEAR). Device-reported problems are returned as a result with a nonzero error_nr.
// @Tags Devices
// @Accept json
// @Produce json
// @Param code path string true "Device code"
// @Param request body model.CommandRequest true "Command"
// @Success 200 {object} utils.APIResponse "Command executed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Failure 409 {object} utils.APIResponse "Device lacks the requested role"
// @Failure 502 {object} utils.APIResponse "Device unreachable"
// @Failure 504 {object} utils.APIResponse "Device timeout"
// @Router /devices/{code}/command [post]
func (h *DeviceHandler) ExecuteCommand(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req model.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		utils.DeviceErrorResponse(c, "Invalid role", err)
		return
	}

	ctx, cancel := h.commandContext(c)
	defer cancel()

	result, err := s.ExecuteCommand(ctx, role, driver.Command{Token: req.Token, Text: req.Text})
	if err != nil {
		utils.DeviceErrorResponse(c, "Command failed", err)
		return
	}

	h.bus.Publish(resultEvent(model.EventCommandResult, s.Code(), result))
	utils.SuccessResponse(c, http.StatusOK, "Command executed", result)
}

// StartPolling starts or replaces the polling schedule of a device
// @Summary Start polling
// @Description Repeat a command on a fixed cadence. Results are pushed to /ws/devices/{code}. Starting again replaces the running schedule.
// @Tags Devices
// @Accept json
// @Produce json
// @Param code path string true "Device code"
// @Param request body model.PollingRequest true "Polling request"
// @Success 200 {object} utils.APIResponse{data=PollingResponse} "Polling started"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Failure 409 {object} utils.APIResponse "Device lacks the requested role"
// @Router /devices/{code}/polling [post]
func (h *DeviceHandler) StartPolling(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req model.PollingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		utils.DeviceErrorResponse(c, "Invalid role", err)
		return
	}

	opts := model.NewOptionReader(s.Descriptor().Options, h.logger.Logger)
	delay, interval := req.Cadence(
		opts.Millis(model.OptionPollDelayMs, h.config.PollDelay),
		opts.Millis(model.OptionPollIntervalMs, h.config.PollInterval),
	)

	code := s.Code()
	id, err := s.StartPolling(role, driver.Command{Token: req.Token, Text: req.Text}, func(result driver.Result) {
		h.bus.Publish(resultEvent(model.EventPollingResult, code, result))
	}, delay, interval)
	if err != nil {
		utils.DeviceErrorResponse(c, "Failed to start polling", err)
		return
	}

	resp := PollingResponse{
		PollingID:    id.String(),
		InitialDelay: delay.String(),
		Interval:     interval.String(),
	}
	h.bus.Publish(model.NewDeviceEvent(model.EventPollingStarted, code, resp))
	utils.SuccessResponse(c, http.StatusOK, "Polling started", resp)
}

// StopPolling cancels the polling schedule of a device
// @Summary Stop polling
// @Tags Devices
// @Produce json
// @Param code path string true "Device code"
// @Success 200 {object} utils.APIResponse "Polling stopped"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Router /devices/{code}/polling [delete]
func (h *DeviceHandler) StopPolling(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	wasPolling := s.IsPolling()
	s.StopPolling()
	if wasPolling {
		h.bus.Publish(model.NewDeviceEvent(model.EventPollingStopped, s.Code(), nil))
	}
	utils.SuccessResponse(c, http.StatusOK, "Polling stopped", gin.H{"was_polling": wasPolling})
}

func (h *DeviceHandler) session(c *gin.Context) (*session.Session, bool) {
	return findSession(c, h.sessions)
}

func findSession(c *gin.Context, sessions *session.Manager) (*session.Session, bool) {
	s, err := sessions.Get(c.Param("code"))
	if err != nil {
		utils.DeviceErrorResponse(c, "Device not found", err)
		return nil, false
	}
	return s, true
}

// requestLogger tags logger with the id stored by the request id middleware
func requestLogger(c *gin.Context, logger *utils.ServiceLogger) *zap.Logger {
	return utils.LoggerWithRequestID(logger.Logger, c.GetString("request_id"))
}

func (h *DeviceHandler) commandContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return commandContext(c, h.config.CommandTimeout)
}

func commandContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

func resultEvent(eventType model.EventType, code string, result driver.Result) model.DeviceEvent {
	event := model.NewDeviceEvent(eventType, code, result)
	switch nr := result.Header().ErrorNr; {
	case nr == driver.ErrorNrPolling:
		event.Severity = "ERROR"
	case nr != driver.ErrorNrNone:
		event.Severity = "WARNING"
	}
	return event
}
