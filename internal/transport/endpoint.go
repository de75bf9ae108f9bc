// internal/transport/endpoint.go
package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"weighbridge-service/internal/model"
)

// Mode tells how a transport reaches its peer
type Mode int

const (
	ModeClient Mode = iota
	ModeServer
	ModeSerial
)

func (m Mode) String() string {
	switch m {
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	case ModeSerial:
		return "serial"
	default:
		return "unknown"
	}
}

// listenHost is the host keyword that selects server mode
const listenHost = "listen"

// SerialConfig represents serial line settings
type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Endpoint is a parsed connection descriptor
type Endpoint struct {
	Mode   Mode
	Host   string
	Port   int
	Serial SerialConfig
}

// Address returns the dial address for client mode or the device path for serial mode
func (e Endpoint) Address() string {
	switch e.Mode {
	case ModeSerial:
		return e.Serial.Port
	case ModeServer:
		return fmt.Sprintf("%s:%d", listenHost, e.Port)
	default:
		return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	}
}

func (e Endpoint) String() string {
	if e.Mode == ModeSerial {
		return fmt.Sprintf("%s,%d,%d,%s,%d", e.Serial.Port, e.Serial.BaudRate,
			e.Serial.DataBits, e.Serial.Parity, e.Serial.StopBits)
	}
	return e.Address()
}

// Configure parses a connection descriptor for the given port type.
// TCP accepts "host:port" (client) and "listen:port" (server).
// Serial accepts "device[,baud[,databits[,parity[,stopbits]]]]".
func Configure(portType model.PortType, param string) (Endpoint, error) {
	switch portType {
	case model.PortTypeTCP:
		return parseTCP(param)
	case model.PortTypeSerial:
		return parseSerial(param)
	default:
		return Endpoint{}, fmt.Errorf("%w: port type %s has no transport", model.ErrConfiguration, portType)
	}
}

func parseTCP(param string) (Endpoint, error) {
	param = strings.TrimSpace(param)
	host, portStr, err := net.SplitHostPort(param)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: invalid address %q: %v", model.ErrConfiguration, param, err)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("%w: missing host in %q", model.ErrConfiguration, param)
	}

	port, err := parsePort(portStr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %v", model.ErrConfiguration, param, err)
	}

	if strings.EqualFold(host, listenHost) {
		return Endpoint{Mode: ModeServer, Port: port}, nil
	}
	return Endpoint{Mode: ModeClient, Host: host, Port: port}, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("port %q is not a number", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d is out of range [1, 65535]", port)
	}
	return port, nil
}

func parseSerial(param string) (Endpoint, error) {
	cfg := SerialConfig{
		BaudRate: 9600,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	}

	parts := strings.Split(param, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	cfg.Port = parts[0]
	if cfg.Port == "" {
		return Endpoint{}, fmt.Errorf("%w: serial port is required", model.ErrConfiguration)
	}
	if len(parts) > 5 {
		return Endpoint{}, fmt.Errorf("%w: too many serial fields in %q", model.ErrConfiguration, param)
	}

	atoi := func(idx int, name string, dst *int) error {
		if len(parts) <= idx || parts[idx] == "" {
			return nil
		}
		v, err := strconv.Atoi(parts[idx])
		if err != nil || v <= 0 {
			return fmt.Errorf("%w: invalid %s %q", model.ErrConfiguration, name, parts[idx])
		}
		*dst = v
		return nil
	}

	if err := atoi(1, "baud rate", &cfg.BaudRate); err != nil {
		return Endpoint{}, err
	}
	if err := atoi(2, "data bits", &cfg.DataBits); err != nil {
		return Endpoint{}, err
	}
	if len(parts) > 3 && parts[3] != "" {
		p := strings.ToUpper(parts[3][:1])
		if !strings.Contains("NOEMS", p) {
			return Endpoint{}, fmt.Errorf("%w: invalid parity %q", model.ErrConfiguration, parts[3])
		}
		cfg.Parity = p
	}
	if err := atoi(4, "stop bits", &cfg.StopBits); err != nil {
		return Endpoint{}, err
	}

	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return Endpoint{}, fmt.Errorf("%w: data bits must be 5..8", model.ErrConfiguration)
	}
	if cfg.StopBits != 1 && cfg.StopBits != 2 {
		return Endpoint{}, fmt.Errorf("%w: stop bits must be 1 or 2", model.ErrConfiguration)
	}

	return Endpoint{Mode: ModeSerial, Serial: cfg}, nil
}
