package serial

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

func TestScan(t *testing.T) {
	s := NewScanner(zap.NewNop(), func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "A123", Product: "FT232R"},
		}, nil
	})

	ports, err := s.Scan(t.Context())
	require.NoError(t, err)
	require.Len(t, ports, 2)

	assert.Equal(t, model.PortTypeSerial, ports[0].PortType)
	assert.Empty(t, ports[0].VID)
	assert.Equal(t, "/dev/ttyUSB0", ports[1].Address)
	assert.Equal(t, "0403", ports[1].VID)
	assert.Equal(t, "FT232R", ports[1].Description)
}

func TestScanErrors(t *testing.T) {
	s := NewScanner(zap.NewNop(), func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("no sysfs")
	})
	_, err := s.Scan(t.Context())
	assert.ErrorContains(t, err, "no sysfs")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
