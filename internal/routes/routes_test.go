package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/discovery"
	"weighbridge-service/internal/handler"
	"weighbridge-service/internal/session"
)

func TestSetupRouter(t *testing.T) {
	cfg := &config.Config{
		App:       config.AppConfig{Environment: "test"},
		Server:    config.ServerConfig{AllowedOrigins: []string{"*"}},
		WebSocket: config.WebSocketConfig{PingInterval: time.Second, WriteTimeout: time.Second, SendBuffer: 4},
	}
	bus := handler.NewEventBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bus.Start(ctx)

	router := NewRouter(cfg, zap.NewNop(), nil, session.NewManager(zap.NewNop()), bus,
		discovery.NewScannerManager(zap.NewNop())).SetupRouter()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/devices", http.StatusOK},
		{http.MethodGet, "/api/v1/devices/NOPE", http.StatusNotFound},
		{http.MethodPost, "/api/v1/devices/NOPE/weigh", http.StatusNotFound},
		{http.MethodGet, "/api/v1/discovery/scanners", http.StatusOK},
		{http.MethodGet, "/api/v1/ws/stats", http.StatusOK},
		{http.MethodGet, "/ws/devices/NOPE", http.StatusNotFound},
		{http.MethodGet, "/docs", http.StatusMovedPermanently},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), tt.path)
	}
}
