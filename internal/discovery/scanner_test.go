package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

type fakeScanner struct {
	name      string
	available bool
	ports     []*Port
	err       error
}

func (f *fakeScanner) Scan(context.Context) ([]*Port, error) { return f.ports, f.err }
func (f *fakeScanner) ScannerType() string                   { return f.name }
func (f *fakeScanner) IsAvailable() bool                     { return f.available }

func TestScannerManager(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&fakeScanner{name: "serial", available: true, ports: []*Port{{Address: "/dev/ttyS0"}}})
	sm.RegisterScanner(&fakeScanner{name: "broken", available: true, err: errors.New("boom")})
	sm.RegisterScanner(&fakeScanner{name: "usb", available: false})

	assert.Equal(t, []string{"broken", "serial"}, sm.GetAvailableScanners())

	ports := sm.ScanAll(t.Context())
	require.Len(t, ports, 1)
	assert.Equal(t, "/dev/ttyS0", ports[0].Address)

	_, err := sm.ScanByType(t.Context(), "bluetooth")
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = sm.ScanByType(t.Context(), "usb")
	assert.ErrorIs(t, err, model.ErrNotImplemented)
}

func TestClaim(t *testing.T) {
	ports := []*Port{
		{PortType: model.PortTypeSerial, Address: "/dev/ttyUSB0"},
		{PortType: model.PortTypeTCP, Address: "Scale.local:4001"},
		{PortType: model.PortTypeSerial, Address: "/dev/ttyUSB1"},
	}
	descs := []model.Descriptor{
		{Code: "W2", PortType: model.PortTypeSerial, ParamString: "/dev/ttyUSB0,9600"},
		{Code: "W1", PortType: model.PortTypeSerial, ParamString: "/dev/ttyUSB0"},
		{Code: "T1", PortType: model.PortTypeTCP, ParamString: "scale.local:4001"},
		{Code: "N1", PortType: model.PortTypeNone},
	}

	Claim(ports, descs)

	assert.Equal(t, []string{"W1", "W2"}, ports[0].DeviceCodes)
	assert.Equal(t, []string{"T1"}, ports[1].DeviceCodes)
	assert.Empty(t, ports[2].DeviceCodes)
}
