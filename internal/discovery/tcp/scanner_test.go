package tcp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

func TestScanProbesClientEndpoints(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	// reserve a port, then free it so nothing listens there
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedAddr := closed.Addr().String()
	closed.Close()

	targets := func() []model.Descriptor {
		return []model.Descriptor{
			{Code: "A", PortType: model.PortTypeTCP, ParamString: ln.Addr().String()},
			{Code: "B", PortType: model.PortTypeTCP, ParamString: ln.Addr().String()},
			{Code: "C", PortType: model.PortTypeTCP, ParamString: closedAddr},
			{Code: "D", PortType: model.PortTypeTCP, ParamString: "listen:4001"},
			{Code: "E", PortType: model.PortTypeSerial, ParamString: "/dev/ttyS0"},
		}
	}

	s := NewScanner(zap.NewNop(), targets, Config{ConnTimeout: time.Second})
	require.True(t, s.IsAvailable())

	ports, err := s.Scan(t.Context())
	require.NoError(t, err)
	require.Len(t, ports, 2)

	assert.Equal(t, ln.Addr().String(), ports[0].Address)
	assert.True(t, ports[0].Reachable)
	assert.Empty(t, ports[0].Error)

	assert.Equal(t, closedAddr, ports[1].Address)
	assert.False(t, ports[1].Reachable)
	assert.NotEmpty(t, ports[1].Error)
}

func TestScannerWithoutTargets(t *testing.T) {
	s := NewScanner(zap.NewNop(), nil, Config{})
	assert.False(t, s.IsAvailable())
}
