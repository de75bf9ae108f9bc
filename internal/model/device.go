// internal/model/device.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// DeviceType represents the kind of peripheral
type DeviceType string

const (
	DeviceTypeNone    DeviceType = "NONE"
	DeviceTypeScale   DeviceType = "SCALE"
	DeviceTypeCard    DeviceType = "CARD"
	DeviceTypeDisplay DeviceType = "DISPLAY"
	DeviceTypeCam     DeviceType = "CAM"
	DeviceTypeSpsVisu DeviceType = "SPSVISU"
)

// PortType represents how the device is reached
type PortType string

const (
	PortTypeNone   PortType = "NONE"
	PortTypeTCP    PortType = "TCP"
	PortTypeSerial PortType = "SERIAL"
)

// Role is the capability an adapter provides to a session
type Role string

const (
	RoleNone    Role = ""
	RoleScale   Role = "scale"
	RoleCard    Role = "card"
	RoleDisplay Role = "display"
)

var deviceTypes = map[string]DeviceType{
	"NONE":    DeviceTypeNone,
	"SCALE":   DeviceTypeScale,
	"CARD":    DeviceTypeCard,
	"DISPLAY": DeviceTypeDisplay,
	"CAM":     DeviceTypeCam,
	"SPSVISU": DeviceTypeSpsVisu,
}

var portTypes = map[string]PortType{
	"NONE":   PortTypeNone,
	"TCP":    PortTypeTCP,
	"SERIAL": PortTypeSerial,
}

// ParseDeviceType parses a device type name case-insensitively
func ParseDeviceType(s string) (DeviceType, error) {
	if t, ok := deviceTypes[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown device type %q", ErrConfiguration, s)
}

// ParsePortType parses a port type name case-insensitively
func ParsePortType(s string) (PortType, error) {
	if t, ok := portTypes[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown port type %q", ErrConfiguration, s)
}

// ParseRole parses a role name. An empty string yields RoleNone.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleNone, RoleScale, RoleCard, RoleDisplay:
		return r, nil
	default:
		return RoleNone, fmt.Errorf("%w: unknown role %q", ErrConfiguration, s)
	}
}

// Role returns the capability a device of this type provides
func (t DeviceType) Role() Role {
	switch t {
	case DeviceTypeScale:
		return RoleScale
	case DeviceTypeCard:
		return RoleCard
	case DeviceTypeDisplay, DeviceTypeSpsVisu:
		return RoleDisplay
	default:
		return RoleNone
	}
}

// Options holds free-form per-device settings. Stored as JSONB in PostgreSQL.
type Options map[string]string

func (o *Options) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported options column type %T", value)
	}
	return json.Unmarshal(raw, o)
}

func (o Options) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

// Descriptor is the immutable configuration of one device as read from the catalog
type Descriptor struct {
	Code        string     `json:"code" yaml:"code" db:"code"`
	DeviceType  DeviceType `json:"device_type" yaml:"device_type" db:"device_type"`
	ModuleCode  string     `json:"module_code" yaml:"module_code" db:"module_code"`
	PortType    PortType   `json:"port_type" yaml:"port_type" db:"port_type"`
	ParamString string     `json:"param_string" yaml:"param_string" db:"param_string"`
	Options     Options    `json:"options,omitempty" yaml:"options" db:"options"`
}

// Normalize canonicalizes enum spellings and validates them
func (d *Descriptor) Normalize() error {
	if strings.TrimSpace(d.Code) == "" {
		return fmt.Errorf("%w: device code is required", ErrConfiguration)
	}

	dt, err := ParseDeviceType(string(d.DeviceType))
	if err != nil {
		return fmt.Errorf("device %s: %w", d.Code, err)
	}
	d.DeviceType = dt

	if d.PortType == "" {
		d.PortType = PortTypeNone
	}
	pt, err := ParsePortType(string(d.PortType))
	if err != nil {
		return fmt.Errorf("device %s: %w", d.Code, err)
	}
	d.PortType = pt

	d.ModuleCode = strings.ToUpper(strings.TrimSpace(d.ModuleCode))
	return nil
}

// Role returns the capability this device provides
func (d Descriptor) Role() Role {
	return d.DeviceType.Role()
}
