// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "weighbridge-service/docs"
	"weighbridge-service/internal/catalog"
	"weighbridge-service/internal/config"
	"weighbridge-service/internal/database"
	"weighbridge-service/internal/discovery"
	serialscan "weighbridge-service/internal/discovery/serial"
	tcpscan "weighbridge-service/internal/discovery/tcp"
	"weighbridge-service/internal/handler"
	"weighbridge-service/internal/model"
	"weighbridge-service/internal/routes"
	"weighbridge-service/internal/session"
	"weighbridge-service/internal/transport"
	"weighbridge-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	catalog  catalog.Provider
	sessions *session.Manager
	bus      *handler.EventBus
	scanners *discovery.ScannerManager

	stopBus context.CancelFunc
}

// @title Weighbridge Service API
// @version 1.0.0
// @description Device communication middleware for weighbridge scales, card readers and message displays

// @contact.name Weighbridge Service API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8084
// @BasePath /api/v1
func main() {
	app, err := NewApplication(os.Getenv("DEVICE_SERVICE_CONFIG_FILE"))
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version,
		zap.String("environment", cfg.App.Environment),
		zap.String("catalog_source", cfg.Catalog.Source),
	)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeCatalog(); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	if err := app.initializeSessions(); err != nil {
		return nil, fmt.Errorf("failed to initialize device sessions: %w", err)
	}

	app.initializeDiscovery()

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeCatalog opens the device catalog and, for postgres, its database
func (app *Application) initializeCatalog() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, db, err := catalog.Open(ctx, app.config, app.logger)
	if err != nil {
		return err
	}

	app.catalog = provider
	app.database = db

	app.logger.Info("Catalog initialized successfully", zap.String("source", app.config.Catalog.Source))
	return nil
}

// initializeSessions loads a session for every catalog device. Devices with
// invalid configuration are logged and skipped.
func (app *Application) initializeSessions() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	descs, err := app.catalog.List(ctx)
	if err != nil {
		return err
	}

	app.sessions = session.NewManager(app.logger, session.WithTransportOptions(
		transport.WithTimeout(app.config.Device.Timeout),
		transport.WithBufferSize(app.config.Device.BufferSize),
	))
	if err := app.sessions.LoadAll(descs); err != nil {
		app.logger.Warn("Some devices could not be loaded", zap.Error(err))
	}

	if app.config.Device.OpenOnStart {
		app.openAll()
	}

	app.logger.Info("Device sessions initialized",
		zap.Int("catalog_devices", len(descs)),
		zap.Int("loaded", len(app.sessions.List())),
	)
	return nil
}

func (app *Application) openAll() {
	for _, s := range app.sessions.List() {
		if s.Descriptor().PortType == model.PortTypeNone {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), app.config.Device.Timeout)
		if err := s.Open(ctx); err != nil {
			app.logger.Warn("Failed to open device on start",
				zap.String("device_code", s.Code()),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (app *Application) initializeDiscovery() {
	app.scanners = discovery.NewScannerManager(app.logger)
	app.scanners.RegisterScanner(serialscan.NewScanner(app.logger, nil))
	app.scanners.RegisterScanner(tcpscan.NewScanner(app.logger, app.sessions.Descriptors, tcpscan.Config{
		ConnTimeout: app.config.Device.Timeout,
	}))
}

// initializeServer sets up the event bus, HTTP server and routes
func (app *Application) initializeServer() error {
	app.bus = handler.NewEventBus(app.logger)

	var db handler.Pinger
	if app.database != nil {
		db = app.database
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		db,
		app.sessions,
		app.bus,
		app.scanners,
	)
	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.config.GetServerAddr()))
	return nil
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down
func (app *Application) Start() error {
	busCtx, stopBus := context.WithCancel(context.Background())
	app.stopBus = stopBus
	go app.bus.Start(busCtx)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		app.shutdown("shutdown signal received")
		return nil
	case err := <-errCh:
		app.shutdown("http server failed")
		return err
	}
}

// shutdown performs graceful shutdown
func (app *Application) shutdown(reason string) {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop(reason)

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Device.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if err := app.sessions.CloseAll(); err != nil {
		app.logger.Error("Device close error", zap.Error(err))
	}

	// closes the WebSocket subscriptions, which disconnects their clients
	app.stopBus()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
