// internal/catalog/file.go
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"weighbridge-service/internal/model"
)

type fileDocument struct {
	Devices []model.Descriptor `yaml:"devices"`
}

// FileProvider serves descriptors from a YAML document of the form
//
//	devices:
//	  - code: SCALE-IN
//	    device_type: SCALE
//	    module_code: IT6000
//	    port_type: TCP
//	    param_string: 10.0.0.5:4001
//	    options: {timeout_ms: "3000"}
type FileProvider struct {
	path    string
	logger  *zap.Logger
	mu      sync.RWMutex
	devices []model.Descriptor
}

// NewFileProvider reads path once. Call Reload to pick up changes.
func NewFileProvider(path string, logger *zap.Logger) (*FileProvider, error) {
	p := &FileProvider{
		path:   path,
		logger: logger.With(zap.String("component", "catalog"), zap.String("path", path)),
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the catalog file. On error the previous contents are kept.
func (p *FileProvider) Reload() error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("%w: open catalog: %w", model.ErrConfiguration, err)
	}
	defer f.Close()

	devices, err := Decode(f)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.devices = devices
	p.mu.Unlock()

	p.logger.Info("Device catalog loaded", zap.Int("devices", len(devices)))
	return nil
}

// Get implements Provider
func (p *FileProvider) Get(ctx context.Context, code string) (model.Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, d := range p.devices {
		if d.Code == code {
			return d, nil
		}
	}
	return model.Descriptor{}, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, code)
}

// List implements Provider. Devices are returned in file order.
func (p *FileProvider) List(ctx context.Context) ([]model.Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.Descriptor(nil), p.devices...), nil
}

// Decode parses a YAML catalog. Codes must be present and unique.
func Decode(r io.Reader) ([]model.Descriptor, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: decode catalog: %w", model.ErrConfiguration, err)
	}

	seen := make(map[string]bool, len(doc.Devices))
	for i := range doc.Devices {
		d := &doc.Devices[i]
		d.Code = strings.TrimSpace(d.Code)
		if d.Code == "" {
			return nil, fmt.Errorf("%w: device #%d has no code", model.ErrConfiguration, i+1)
		}
		if seen[d.Code] {
			return nil, fmt.Errorf("%w: duplicate device code %s", model.ErrConfiguration, d.Code)
		}
		seen[d.Code] = true
	}
	return doc.Devices, nil
}
