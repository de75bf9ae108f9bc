// internal/discovery/tcp/scanner.go
package tcp

import (
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"weighbridge-service/internal/discovery"
	"weighbridge-service/internal/model"
)

// TargetFunc returns the descriptors whose endpoints should be probed
type TargetFunc func() []model.Descriptor

// Config for TCP scanner
type Config struct {
	ConnTimeout time.Duration `json:"connection_timeout"`
	Parallel    int           `json:"parallel"`
}

// Scanner probes the network endpoints of catalog devices. Server-mode
// endpoints ("listen:port") are skipped.
type Scanner struct {
	targets TargetFunc
	config  Config
	dialer  net.Dialer
	logger  *zap.Logger
}

// NewScanner creates a new TCP scanner
func NewScanner(logger *zap.Logger, targets TargetFunc, config Config) *Scanner {
	if config.ConnTimeout <= 0 {
		config.ConnTimeout = 3 * time.Second
	}
	if config.Parallel <= 0 {
		config.Parallel = 8
	}
	return &Scanner{
		targets: targets,
		config:  config,
		logger:  logger.With(zap.String("scanner", "tcp")),
	}
}

func (s *Scanner) ScannerType() string {
	return "tcp"
}

func (s *Scanner) IsAvailable() bool {
	return s.targets != nil
}

// Scan dials each distinct client endpoint once
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.Port, error) {
	seen := make(map[string]bool)
	var ports []*discovery.Port
	for _, d := range s.targets() {
		if d.PortType != model.PortTypeTCP {
			continue
		}
		addr := strings.TrimSpace(d.ParamString)
		host, _, err := net.SplitHostPort(addr)
		if err != nil || host == "" || strings.EqualFold(host, "listen") || seen[addr] {
			continue
		}
		seen[addr] = true
		ports = append(ports, &discovery.Port{PortType: model.PortTypeTCP, Address: addr})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallel)
	for _, port := range ports {
		g.Go(func() error {
			s.probe(gctx, port)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("TCP probe completed", zap.Int("endpoints", len(ports)))
	return ports, ctx.Err()
}

func (s *Scanner) probe(ctx context.Context, port *discovery.Port) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ConnTimeout)
	defer cancel()

	start := time.Now()
	conn, err := s.dialer.DialContext(ctx, "tcp", port.Address)
	if err != nil {
		port.Error = err.Error()
		return
	}
	conn.Close()
	port.Reachable = true
	port.Latency = time.Since(start)
}
