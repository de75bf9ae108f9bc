package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"weighbridge-service/internal/utils"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(utils.NewServiceLogger(zap.NewNop(), "test")))
	r.Use(CORSMiddleware([]string{"http://ops.local"}))
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	assert.Len(t, w.Body.String(), 36)
}

func TestRecovery(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestCORS(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("Origin", "http://ops.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://ops.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
