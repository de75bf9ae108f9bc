// internal/handler/operation_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/utils"
	"weighbridge-service/pkg/driver"
)

// OperationHandler exposes role-specific device operations
type OperationHandler struct {
	sessions       *session.Manager
	bus            *EventBus
	commandTimeout time.Duration
	logger         *utils.ServiceLogger
}

// WeighRequest represents a weighing request
type WeighRequest struct {
	Register bool `json:"register"`
}

// DisplayRequest represents a display request
type DisplayRequest struct {
	Text string `json:"text" binding:"required"`
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(sessions *session.Manager, bus *EventBus, commandTimeout time.Duration, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{
		sessions:       sessions,
		bus:            bus,
		commandTimeout: commandTimeout,
		logger:         utils.NewServiceLogger(logger, "operation-handler"),
	}
}

// RegisterDeviceRoutes registers operation routes below /devices/:code
func (h *OperationHandler) RegisterDeviceRoutes(router *gin.RouterGroup) {
	device := router.Group("/devices/:code")
	{
		device.POST("/weigh", h.WeighOperation)
		device.POST("/read-card", h.ReadCardOperation)
		device.POST("/display", h.DisplayOperation)
		device.DELETE("/display", h.ClearDisplayOperation)
	}
}

// WeighOperation reads the current weight
// @Summary Weigh
// @Description Read the current weight. With register=true the weighing is stored in the scale's alibi memory and the response carries its number.
// @Tags Operations
// @Accept json
// @Produce json
// @Param code path string true "Device code"
// @Param request body WeighRequest false "Weigh request"
// @Success 200 {object} utils.APIResponse{data=driver.ScaleResult} "Weighing completed"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Failure 409 {object} utils.APIResponse "Device is not a scale"
// @Failure 502 {object} utils.APIResponse "Device unreachable"
// @Router /devices/{code}/weigh [post]
func (h *OperationHandler) WeighOperation(c *gin.Context) {
	s, ok := findSession(c, h.sessions)
	if !ok {
		return
	}

	var req WeighRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	token := driver.TokenWeigh
	if req.Register {
		token = driver.TokenRegister
	}

	ctx, cancel := commandContext(c, h.commandTimeout)
	defer cancel()

	result, err := s.Scale(ctx, driver.Command{Token: token})
	if err != nil {
		requestLogger(c, h.logger).Warn("Weigh operation failed", zap.String("device_code", s.Code()), zap.Error(err))
		utils.DeviceErrorResponse(c, "Failed to weigh", err)
		return
	}

	h.bus.Publish(resultEvent(model.EventCommandResult, s.Code(), result))
	utils.SuccessResponse(c, http.StatusOK, "Weighing completed", result)
}

// ReadCardOperation reads the last presented card
// @Summary Read card
// @Tags Operations
// @Produce json
// @Param code path string true "Device code"
// @Success 200 {object} utils.APIResponse{data=driver.CardResult} "Card read"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Failure 409 {object} utils.APIResponse "Device is not a card reader"
// @Router /devices/{code}/read-card [post]
func (h *OperationHandler) ReadCardOperation(c *gin.Context) {
	s, ok := findSession(c, h.sessions)
	if !ok {
		return
	}

	ctx, cancel := commandContext(c, h.commandTimeout)
	defer cancel()

	result, err := s.Card(ctx, driver.Command{Token: driver.TokenRead})
	if err != nil {
		requestLogger(c, h.logger).Warn("Card read failed", zap.String("device_code", s.Code()), zap.Error(err))
		utils.DeviceErrorResponse(c, "Failed to read card", err)
		return
	}

	h.bus.Publish(resultEvent(model.EventCommandResult, s.Code(), result))
	utils.SuccessResponse(c, http.StatusOK, "Card read", result)
}

// DisplayOperation shows a message
// @Summary Show message
// @Tags Operations
// @Accept json
// @Produce json
// @Param code path string true "Device code"
// @Param request body DisplayRequest true "Display request"
// @Success 200 {object} utils.APIResponse{data=driver.DisplayResult} "Message shown"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Failure 409 {object} utils.APIResponse "Device is not a display"
// @Router /devices/{code}/display [post]
func (h *OperationHandler) DisplayOperation(c *gin.Context) {
	var req DisplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.display(c, driver.Command{Token: driver.TokenShow, Text: req.Text}, "Message shown")
}

// ClearDisplayOperation blanks the display
// @Summary Clear display
// @Tags Operations
// @Produce json
// @Param code path string true "Device code"
// @Success 200 {object} utils.APIResponse{data=driver.DisplayResult} "Display cleared"
// @Failure 404 {object} utils.APIResponse "Device not found"
// @Failure 409 {object} utils.APIResponse "Device is not a display"
// @Router /devices/{code}/display [delete]
func (h *OperationHandler) ClearDisplayOperation(c *gin.Context) {
	h.display(c, driver.Command{Token: driver.TokenClear}, "Display cleared")
}

func (h *OperationHandler) display(c *gin.Context, cmd driver.Command, message string) {
	s, ok := findSession(c, h.sessions)
	if !ok {
		return
	}

	ctx, cancel := commandContext(c, h.commandTimeout)
	defer cancel()

	result, err := s.Display(ctx, cmd)
	if err != nil {
		requestLogger(c, h.logger).Warn("Display operation failed", zap.String("device_code", s.Code()), zap.Error(err))
		utils.DeviceErrorResponse(c, "Display operation failed", err)
		return
	}

	h.bus.Publish(resultEvent(model.EventCommandResult, s.Code(), result))
	utils.SuccessResponse(c, http.StatusOK, message, result)
}
