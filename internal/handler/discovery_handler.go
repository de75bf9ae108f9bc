// internal/handler/discovery_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weighbridge-service/internal/discovery"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/utils"
)

// DiscoveryHandler lists ports and probes device endpoints
type DiscoveryHandler struct {
	scanners *discovery.ScannerManager
	sessions *session.Manager
	logger   *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(scanners *discovery.ScannerManager, sessions *session.Manager, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		scanners: scanners,
		sessions: sessions,
		logger:   utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discovery := router.Group("/discovery")
	{
		discovery.GET("/scan", h.ScanPorts)
		discovery.GET("/scanners", h.GetScanners)
	}
}

// ScanPorts scans for ports and matches them to loaded devices
// @Summary Scan ports
// @Description List local serial ports and probe the TCP endpoints of loaded devices. Each port carries the codes of the devices configured on it.
// @Tags Discovery
// @Produce json
// @Param type query string false "Scanner type" Enums(all, serial, tcp) default(all)
// @Param timeout query string false "Scan timeout" default(30s)
// @Success 200 {object} utils.APIResponse{data=object{ports_found=int,ports=[]discovery.Port}} "Port scan completed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 501 {object} utils.APIResponse "Scanner not available"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) ScanPorts(c *gin.Context) {
	scanType := c.DefaultQuery("type", "all")
	timeout, err := time.ParseDuration(c.DefaultQuery("timeout", "30s"))
	if err != nil || timeout <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid timeout", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	var ports []*discovery.Port
	if scanType == "all" {
		ports = h.scanners.ScanAll(ctx)
	} else {
		ports, err = h.scanners.ScanByType(ctx, scanType)
		if err != nil {
			h.logger.Warn("Port scan failed", zap.String("type", scanType), zap.Error(err))
			utils.DeviceErrorResponse(c, "Failed to scan ports", err)
			return
		}
	}

	discovery.Claim(ports, h.sessions.Descriptors())
	utils.SuccessResponse(c, http.StatusOK, "Port scan completed", gin.H{
		"ports_found": len(ports),
		"ports":       ports,
	})
}

// GetScanners lists available scanner types
// @Summary Available scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string} "Scanners retrieved"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) GetScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved", h.scanners.GetAvailableScanners())
}
