// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

// Scanner finds ports a device could be attached to
type Scanner interface {
	Scan(ctx context.Context) ([]*Port, error)
	ScannerType() string
	IsAvailable() bool
}

// Port is a discovered serial line or network endpoint
type Port struct {
	PortType     model.PortType `json:"port_type"`
	Address      string         `json:"address"`
	Description  string         `json:"description,omitempty"`
	VID          string         `json:"vid,omitempty"`
	PID          string         `json:"pid,omitempty"`
	SerialNumber string         `json:"serial_number,omitempty"`
	Reachable    bool           `json:"reachable"`
	Latency      time.Duration  `json:"latency,omitempty"`
	Error        string         `json:"error,omitempty"`
	DeviceCodes  []string       `json:"device_codes,omitempty"`
}

// ScannerManager runs the registered scanners
type ScannerManager struct {
	scanners map[string]Scanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]Scanner),
		logger:   logger.With(zap.String("component", "discovery")),
	}
}

// RegisterScanner registers a scanner under its type
func (sm *ScannerManager) RegisterScanner(scanner Scanner) {
	scannerType := scanner.ScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner. A failing scanner is logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) []*Port {
	var all []*Port
	for _, scannerType := range sm.GetAvailableScanners() {
		ports, err := sm.scanners[scannerType].Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}
		all = append(all, ports...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("ports_found", len(ports)),
		)
	}
	return all
}

// ScanByType runs one scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*Port, error) {
	scanner, exists := sm.scanners[scannerType]
	if !exists {
		return nil, fmt.Errorf("%w: scanner type not found: %s", model.ErrConfiguration, scannerType)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("%w: scanner not available: %s", model.ErrNotImplemented, scannerType)
	}
	return scanner.Scan(ctx)
}

// GetAvailableScanners returns the available scanner types in name order
func (sm *ScannerManager) GetAvailableScanners() []string {
	var available []string
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	sort.Strings(available)
	return available
}

// Claim records on each port the catalog devices configured for its address.
// Serial devices match on the device path, TCP devices on host:port.
func Claim(ports []*Port, descs []model.Descriptor) {
	owners := make(map[string][]string)
	for _, d := range descs {
		addr := addressOf(d)
		if addr == "" {
			continue
		}
		key := string(d.PortType) + "|" + addr
		owners[key] = append(owners[key], d.Code)
	}

	for _, p := range ports {
		codes := owners[string(p.PortType)+"|"+normalizeAddress(p.PortType, p.Address)]
		if len(codes) > 0 {
			p.DeviceCodes = append([]string(nil), codes...)
			sort.Strings(p.DeviceCodes)
		}
	}
}

func addressOf(d model.Descriptor) string {
	param := strings.TrimSpace(d.ParamString)
	if d.PortType == model.PortTypeSerial {
		param, _, _ = strings.Cut(param, ",")
	}
	return normalizeAddress(d.PortType, param)
}

func normalizeAddress(portType model.PortType, addr string) string {
	addr = strings.TrimSpace(addr)
	if portType == model.PortTypeTCP {
		return strings.ToLower(addr)
	}
	return addr
}
