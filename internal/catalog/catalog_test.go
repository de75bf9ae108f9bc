package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

const sample = `
devices:
  - code: SCALE-IN
    device_type: scale
    module_code: IT6000
    port_type: TCP
    param_string: 10.0.0.5:4001
    options:
      timeout_ms: 3000
      unit: kg
  - code: BARRIER
    device_type: NONE
`

func TestDecode(t *testing.T) {
	devices, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, devices, 2)

	scale := devices[0]
	assert.Equal(t, "SCALE-IN", scale.Code)
	assert.Equal(t, model.DeviceType("scale"), scale.DeviceType)
	assert.Equal(t, "10.0.0.5:4001", scale.ParamString)
	assert.Equal(t, "3000", scale.Options[model.OptionTimeoutMs])
	assert.Equal(t, "kg", scale.Options[model.OptionUnit])

	require.NoError(t, scale.Normalize())
	assert.Equal(t, model.DeviceTypeScale, scale.DeviceType)

	assert.Empty(t, devices[1].PortType)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing code", "devices:\n  - device_type: SCALE\n"},
		{"duplicate code", "devices:\n  - code: A\n  - code: A\n"},
		{"unknown field", "devices:\n  - code: A\n    baud: 9600\n"},
		{"not yaml", "devices: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, model.ErrConfiguration)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	devices, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	p, err := NewFileProvider(path, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	d, err := p.Get(ctx, "BARRIER")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceTypeNone, d.DeviceType)

	_, err = p.Get(ctx, "NOPE")
	require.ErrorIs(t, err, model.ErrDeviceNotFound)

	list, err := p.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, os.WriteFile(path, []byte("devices:\n  - code: ONLY\n"), 0o600))
	require.NoError(t, p.Reload())
	list, err = p.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ONLY", list[0].Code)

	require.NoError(t, os.WriteFile(path, []byte("devices: [\n"), 0o600))
	require.Error(t, p.Reload())
	list, _ = p.List(ctx)
	assert.Len(t, list, 1)
}

func TestFileProviderMissingFile(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	require.ErrorIs(t, err, model.ErrConfiguration)
}

type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *model.DeviceType:
			*d = model.DeviceType(v.(string))
		case *model.PortType:
			*d = model.PortType(v.(string))
		case *model.Options:
			if err := d.Scan(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func TestScanDescriptor(t *testing.T) {
	d, err := scanDescriptor(fakeRow{values: []interface{}{
		"DISPLAY-1", "DISPLAY", "MODBUS", "TCP", "10.0.0.9:502", []byte(`{"slave_id":"3"}`),
	}})
	require.NoError(t, err)
	assert.Equal(t, "DISPLAY-1", d.Code)
	assert.Equal(t, model.DeviceTypeDisplay, d.DeviceType)
	assert.Equal(t, model.PortTypeTCP, d.PortType)
	assert.Equal(t, "3", d.Options[model.OptionSlaveID])

	boom := errors.New("boom")
	_, err = scanDescriptor(fakeRow{err: boom})
	require.ErrorIs(t, err, boom)
}
