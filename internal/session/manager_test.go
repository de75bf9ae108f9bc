package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

func TestManagerLoadAndGet(t *testing.T) {
	m := NewManager(zap.NewNop(), WithRegistry(testRegistry()))
	t.Cleanup(func() { m.CloseAll() })

	desc := lineDevice("127.0.0.1:1")
	s, err := m.Load(desc)
	require.NoError(t, err)

	got, err := m.Get("SCALE-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Load(desc)
	require.ErrorIs(t, err, model.ErrConfiguration)

	_, err = m.Get("MISSING")
	require.ErrorIs(t, err, model.ErrDeviceNotFound)
}

func TestManagerLoadAllKeepsValidDevices(t *testing.T) {
	m := NewManager(zap.NewNop(), WithRegistry(testRegistry()))
	t.Cleanup(func() { m.CloseAll() })

	b := lineDevice("127.0.0.1:1")
	b.Code = "B"
	a := lineDevice("127.0.0.1:2")
	a.Code = "A"
	broken := model.Descriptor{Code: "C", DeviceType: model.DeviceTypeScale, ModuleCode: "UNKNOWN", PortType: model.PortTypeTCP, ParamString: "h:1"}
	gate := model.Descriptor{Code: "GATE", DeviceType: model.DeviceTypeNone}

	err := m.LoadAll([]model.Descriptor{b, broken, a, gate})
	require.ErrorIs(t, err, model.ErrConfiguration)

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].Code())
	assert.Equal(t, "B", list[1].Code())
	assert.Equal(t, "GATE", list[2].Code())

	descs := m.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "A", descs[0].Code)
	assert.Equal(t, "127.0.0.1:2", descs[0].ParamString)
}

func TestManagerRemove(t *testing.T) {
	param, _ := echoPeer(t)
	m := NewManager(zap.NewNop(), WithRegistry(testRegistry()))

	s, err := m.Load(lineDevice(param))
	require.NoError(t, err)
	require.NoError(t, s.Open(t.Context()))

	require.NoError(t, m.Remove("SCALE-1"))
	assert.False(t, s.Connected())
	require.ErrorIs(t, m.Remove("SCALE-1"), model.ErrDeviceNotFound)
	assert.Empty(t, m.List())
}
