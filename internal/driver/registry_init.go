// internal/driver/registry_init.go
package driver

import (
	"go.uber.org/zap"

	"weighbridge-service/internal/driver/fawaws"
	"weighbridge-service/internal/driver/it6000"
	"weighbridge-service/internal/driver/reader"
	"weighbridge-service/internal/driver/spsdisplay"
	"weighbridge-service/internal/model"
)

// RegisterDefaultDrivers fills the closed adapter table
func RegisterDefaultDrivers(registry *Registry, logger *zap.Logger) {
	registerScaleDrivers(registry)
	registerCardDrivers(registry)
	registerDisplayDrivers(registry)

	logger.Info("Device adapters registered",
		zap.Int("adapters", len(registry.ListDrivers())),
	)
}

// NewDefaultRegistry returns a registry holding every bundled adapter
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	registry := NewRegistry(logger)
	RegisterDefaultDrivers(registry, logger)
	return registry
}

func registerScaleDrivers(registry *Registry) {
	registry.Register(model.DeviceTypeScale, it6000.ModuleCode, it6000.New)
	registry.Register(model.DeviceTypeScale, fawaws.ModuleCode, fawaws.New)
}

func registerCardDrivers(registry *Registry) {
	registry.Register(model.DeviceTypeCard, reader.ModuleCode, reader.New)
}

// Both plain displays and SPS visualisation panels speak Modbus
func registerDisplayDrivers(registry *Registry) {
	registry.Register(model.DeviceTypeDisplay, spsdisplay.ModuleCode, spsdisplay.New)
	registry.Register(model.DeviceTypeSpsVisu, spsdisplay.ModuleCode, spsdisplay.New)
}
