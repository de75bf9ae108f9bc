// internal/handler/health_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/utils"
)

// Pinger is implemented by the catalog database
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	sessions  *session.Manager
	db        Pinger
	config    *config.Config
	startTime time.Time
	logger    *utils.ServiceLogger
}

// NewHealthHandler creates a new health handler. db may be nil when the
// catalog is file based.
func NewHealthHandler(sessions *session.Manager, db Pinger, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		sessions:  sessions,
		db:        db,
		config:    config,
		startTime: time.Now(),
		logger:    utils.NewServiceLogger(logger, "health-handler"),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Service status with device connection counts and catalog database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	if h.db != nil {
		if err := h.pingDB(c.Request.Context()); err != nil {
			health.Status = "unhealthy"
			health.Checks["database"] = CheckResult{Status: "unhealthy", Message: err.Error()}
		} else {
			health.Checks["database"] = CheckResult{Status: "healthy", Message: "Database connection OK"}
		}
	}

	var connected, polling int
	sessions := h.sessions.List()
	for _, s := range sessions {
		if s.Connected() {
			connected++
		}
		if s.IsPolling() {
			polling++
		}
	}
	health.Checks["devices"] = CheckResult{
		Status: "healthy",
		Data: map[string]interface{}{
			"loaded":    len(sessions),
			"connected": connected,
			"polling":   polling,
		},
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, health)
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		if err := h.pingDB(c.Request.Context()); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "database not available",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.PingContext(ctx)
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
