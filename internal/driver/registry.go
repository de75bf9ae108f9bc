// internal/driver/registry.go
package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"weighbridge-service/internal/model"
	"weighbridge-service/pkg/driver"
)

// AdapterFactory creates a protocol adapter bound to a session link
type AdapterFactory func(link driver.Link, desc model.Descriptor, logger *zap.Logger) (driver.Adapter, error)

// Registry maps (device type, module code) to adapter constructors
type Registry struct {
	drivers map[DriverKey]AdapterFactory
	mu      sync.RWMutex
	logger  *zap.Logger
}

// DriverKey uniquely identifies an adapter
type DriverKey struct {
	DeviceType model.DeviceType `json:"device_type"`
	ModuleCode string           `json:"module_code"`
}

func (k DriverKey) String() string {
	return fmt.Sprintf("%s/%s", k.DeviceType, k.ModuleCode)
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		drivers: make(map[DriverKey]AdapterFactory),
		logger:  logger.With(zap.String("component", "driver_registry")),
	}
}

// Register registers an adapter factory. Module codes are case-insensitive.
func (r *Registry) Register(deviceType model.DeviceType, moduleCode string, factory AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := DriverKey{DeviceType: deviceType, ModuleCode: strings.ToUpper(moduleCode)}
	r.drivers[key] = factory

	r.logger.Debug("Adapter registered",
		zap.String("device_type", string(deviceType)),
		zap.String("module_code", key.ModuleCode),
	)
}

// Resolve looks up the factory for a descriptor. A device of type NONE has no
// adapter and resolves to nil without error; any other unknown combination is
// a configuration error.
func (r *Registry) Resolve(desc model.Descriptor) (AdapterFactory, error) {
	if desc.DeviceType == model.DeviceTypeNone {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	key := DriverKey{DeviceType: desc.DeviceType, ModuleCode: strings.ToUpper(strings.TrimSpace(desc.ModuleCode))}
	if factory, exists := r.drivers[key]; exists {
		return factory, nil
	}

	return nil, fmt.Errorf("%w: no adapter for device type %s with module %q",
		model.ErrConfiguration, desc.DeviceType, desc.ModuleCode)
}

// IsSupported checks whether a combination is in the table
func (r *Registry) IsSupported(deviceType model.DeviceType, moduleCode string) bool {
	_, err := r.Resolve(model.Descriptor{DeviceType: deviceType, ModuleCode: moduleCode})
	return err == nil
}

// ListDrivers returns all registered combinations in a stable order
func (r *Registry) ListDrivers() []DriverKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]DriverKey, 0, len(r.drivers))
	for key := range r.drivers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
