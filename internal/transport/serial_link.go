// internal/transport/serial_link.go
package transport

import (
	"fmt"
	"os"
	"time"

	"go.bug.st/serial"
)

// serialConn adapts a serial port to Conn. Serial ports only support a relative
// read timeout, and a read that times out returns zero bytes without an error,
// which is mapped to os.ErrDeadlineExceeded here.
type serialConn struct {
	port serial.Port
}

func openSerial(cfg SerialConfig) (Conn, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   serialParity(cfg.Parity),
		StopBits: serial.OneStopBit,
	}
	if cfg.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return &serialConn{port: port}, nil
}

func serialParity(p string) serial.Parity {
	switch p {
	case "O":
		return serial.OddParity
	case "E":
		return serial.EvenParity
	case "M":
		return serial.MarkParity
	case "S":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

func (s *serialConn) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (s *serialConn) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialConn) Close() error {
	return s.port.Close()
}

func (s *serialConn) SetReadDeadline(t time.Time) error {
	if t.IsZero() {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}
	d := time.Until(t)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return s.port.SetReadTimeout(d)
}

// SetWriteDeadline is a no-op; serial writes are bounded by the line speed.
func (s *serialConn) SetWriteDeadline(time.Time) error {
	return nil
}
