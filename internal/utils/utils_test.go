package utils

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"weighbridge-service/internal/config"
	"weighbridge-service/internal/model"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: X", model.ErrDeviceNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: card", model.ErrCapabilityMissing), http.StatusConflict},
		{fmt.Errorf("%w: bad port", model.ErrConfiguration), http.StatusBadRequest},
		{fmt.Errorf("%w: listen", model.ErrNotImplemented), http.StatusNotImplemented},
		{fmt.Errorf("%w: receive", model.ErrTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: refused", model.ErrTransport), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForError(tt.err), tt.err.Error())
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")
	logger, err := NewLogger(&config.LoggingConfig{Level: "debug", Format: "json", Output: path, MaxSize: 1})
	require.NoError(t, err)

	NewDeviceLogger(logger, "SCALE-1", "SCALE", "IT6000").LogConnection("open", nil)
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"device_code":"SCALE-1"`)
	assert.Contains(t, string(data), `"action":"open"`)
}
