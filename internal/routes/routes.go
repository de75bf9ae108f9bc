// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/discovery"
	"weighbridge-service/internal/handler"
	"weighbridge-service/internal/middleware"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config   *config.Config
	logger   *zap.Logger
	db       handler.Pinger
	sessions *session.Manager
	bus      *handler.EventBus
	scanners *discovery.ScannerManager
}

// NewRouter creates a new router instance. db may be nil.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db handler.Pinger,
	sessions *session.Manager,
	bus *handler.EventBus,
	scanners *discovery.ScannerManager,
) *Router {
	return &Router{
		config:   config,
		logger:   logger,
		db:       db,
		sessions: sessions,
		bus:      bus,
		scanners: scanners,
	}
}

// SetupRouter creates and configures the Gin router. The WebSocket
// broadcaster runs until the event bus stops.
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if r.config.App.Environment == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(r.config.Server.AllowedOrigins))
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.sessions, r.db, r.config, r.logger)
	deviceHandler := handler.NewDeviceHandler(r.sessions, r.bus, r.config.Device, r.logger)
	operationHandler := handler.NewOperationHandler(r.sessions, r.bus, r.config.Device.CommandTimeout, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.scanners, r.sessions, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.sessions, r.bus, r.config, r.logger)
	go wsHandler.Run()

	healthHandler.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	deviceHandler.RegisterRoutes(apiV1)
	operationHandler.RegisterDeviceRoutes(apiV1)
	discoveryHandler.RegisterRoutes(apiV1)

	r.addWebSocketRoutes(router, wsHandler)
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(router *gin.Engine, handler *handler.WebSocketHandler) {
	ws := router.Group("/ws")
	{
		ws.GET("/devices/:code", handler.HandleDeviceConnection)
		ws.GET("/events", handler.HandleEventConnection)
	}
	router.GET("/api/v1/ws/stats", func(c *gin.Context) {
		utils.SuccessResponse(c, http.StatusOK, "WebSocket statistics", handler.GetConnectionStats())
	})
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
