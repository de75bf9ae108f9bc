// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"weighbridge-service/internal/discovery"
	"weighbridge-service/internal/model"
)

// ListFunc enumerates the serial ports of the host
type ListFunc func() ([]*enumerator.PortDetails, error)

// Scanner lists local serial ports
type Scanner struct {
	list   ListFunc
	logger *zap.Logger
}

// NewScanner creates a scanner. A nil list uses the OS enumerator.
func NewScanner(logger *zap.Logger, list ListFunc) *Scanner {
	if list == nil {
		list = enumerator.GetDetailedPortsList
	}
	return &Scanner{
		list:   list,
		logger: logger.With(zap.String("scanner", "serial")),
	}
}

func (s *Scanner) ScannerType() string {
	return "serial"
}

func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan returns every serial port the OS reports
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details, err := s.list()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	ports := make([]*discovery.Port, 0, len(details))
	for _, d := range details {
		port := &discovery.Port{
			PortType:  model.PortTypeSerial,
			Address:   d.Name,
			Reachable: true,
		}
		if d.IsUSB {
			port.Description = d.Product
			port.VID = d.VID
			port.PID = d.PID
			port.SerialNumber = d.SerialNumber
		}
		ports = append(ports, port)
	}

	s.logger.Debug("Serial ports listed", zap.Int("count", len(ports)))
	return ports, nil
}
