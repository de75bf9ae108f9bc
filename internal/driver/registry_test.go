package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

func TestResolve(t *testing.T) {
	registry := NewDefaultRegistry(zap.NewNop())

	tests := []struct {
		deviceType model.DeviceType
		module     string
		wantErr    bool
		wantNil    bool
	}{
		{model.DeviceTypeScale, "IT6000", false, false},
		{model.DeviceTypeScale, "it6000", false, false},
		{model.DeviceTypeScale, "FAWAWS", false, false},
		{model.DeviceTypeCard, "READER", false, false},
		{model.DeviceTypeDisplay, "MODBUS", false, false},
		{model.DeviceTypeSpsVisu, "MODBUS", false, false},
		{model.DeviceTypeNone, "", false, true},
		{model.DeviceTypeNone, "ANYTHING", false, true},
		{model.DeviceTypeScale, "UNKNOWN", true, true},
		{model.DeviceTypeCard, "IT6000", true, true},
		{model.DeviceTypeCam, "READER", true, true},
		{model.DeviceTypeCam, "", true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.deviceType)+"/"+tt.module, func(t *testing.T) {
			factory, err := registry.Resolve(model.Descriptor{DeviceType: tt.deviceType, ModuleCode: tt.module})
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrConfiguration)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, factory == nil)
		})
	}
}

func TestListDrivers(t *testing.T) {
	registry := NewDefaultRegistry(zap.NewNop())

	keys := registry.ListDrivers()
	require.Len(t, keys, 5)
	assert.Equal(t, DriverKey{DeviceType: model.DeviceTypeCard, ModuleCode: "READER"}, keys[0])
	assert.True(t, registry.IsSupported(model.DeviceTypeScale, "fawaws"))
	assert.False(t, registry.IsSupported(model.DeviceTypeScale, "SARTORIUS"))
}
