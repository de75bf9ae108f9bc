// internal/driver/spsdisplay/spsdisplay.go
package spsdisplay

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/window"
	"weighbridge-service/pkg/driver"
)

// ModuleCode selects this adapter in the factory table
const ModuleCode = "MODBUS"

const (
	mbapHeaderSize  = 7
	maxADU          = 260
	defaultMaxChars = 64
	maxChars        = 240
)

// Driver writes operator messages into the holding registers of a PLC-driven
// display (two characters per register, high byte first). Modbus framing is
// delegated to goburrow/modbus; bytes travel over the session link.
type Driver struct {
	link      driver.Link
	logger    *zap.Logger
	client    modbus.Client
	transport *linkTransporter
	register  uint16
	chars     int
}

// New creates a display adapter. Options: slave_id, register, max_chars.
func New(link driver.Link, desc model.Descriptor, logger *zap.Logger) (driver.Adapter, error) {
	opts := model.NewOptionReader(desc.Options, logger)

	slaveID := opts.Int(model.OptionSlaveID, 1)
	if slaveID < 0 || slaveID > 247 {
		return nil, errors.New("spsdisplay: slave_id must be 0..247")
	}
	register := opts.Int(model.OptionRegister, 0)
	if register < 0 || register > 0xFFFF {
		return nil, errors.New("spsdisplay: register must be 0..65535")
	}
	chars := opts.Int("max_chars", defaultMaxChars)
	if chars <= 0 || chars > maxChars {
		return nil, fmt.Errorf("spsdisplay: max_chars must be 1..%d", maxChars)
	}
	if chars%2 != 0 {
		chars++
	}

	// Only the packager half of the TCP handler is used; it never dials.
	packager := modbus.NewTCPClientHandler(desc.ParamString)
	packager.SlaveId = byte(slaveID)

	lt := &linkTransporter{link: link}
	return &Driver{
		link:      link,
		logger:    logger.With(zap.String("adapter", ModuleCode)),
		client:    modbus.NewClient2(packager, lt),
		transport: lt,
		register:  uint16(register),
		chars:     chars,
	}, nil
}

// Role implements driver.Adapter
func (d *Driver) Role() model.Role { return model.RoleDisplay }

// Execute implements driver.Adapter
func (d *Driver) Execute(ctx context.Context, cmd driver.Command) (driver.Result, error) {
	res := &driver.DisplayResult{Timestamp: time.Now()}
	d.transport.ctx = ctx
	defer func() { d.transport.ctx = nil }()

	qty := uint16(d.chars / 2)
	var err error

	switch strings.ToUpper(cmd.Token) {
	case driver.TokenShow:
		if len(cmd.Text) > d.chars {
			res.Fail(driver.ErrorNrProtocol, "message has %d characters, display holds %d", len(cmd.Text), d.chars)
			return res, nil
		}
		_, err = d.client.WriteMultipleRegisters(d.register, qty, encodeText(cmd.Text, d.chars))
		res.Message = cmd.Text
	case driver.TokenClear:
		_, err = d.client.WriteMultipleRegisters(d.register, qty, encodeText("", d.chars))
	case driver.TokenRead:
		var raw []byte
		raw, err = d.client.ReadHoldingRegisters(d.register, qty)
		if err == nil {
			res.Message = decodeText(raw)
		}
	default:
		res.Fail(driver.ErrorNrProtocol, "unsupported command %q", cmd.Token)
		return res, nil
	}

	if err == nil {
		return res, nil
	}

	if errors.Is(err, model.ErrTransport) || errors.Is(err, model.ErrTimeout) {
		return nil, err
	}

	var mbErr *modbus.ModbusError
	switch {
	case errors.Is(err, window.ErrOverflow):
		res.Fail(driver.ErrorNrProtocol, "response exceeds %d bytes", maxADU)
	case errors.As(err, &mbErr):
		res.Fail(int(mbErr.ExceptionCode), "modbus exception %d on function %d", mbErr.ExceptionCode, mbErr.FunctionCode)
	default:
		res.Fail(driver.ErrorNrProtocol, "%v", err)
	}
	d.logger.Warn("Display rejected command", zap.String("token", cmd.Token), zap.Error(err))
	return res, nil
}

// encodeText packs s into n bytes, padded with spaces
func encodeText(s string, n int) []byte {
	buf := bytes.Repeat([]byte{' '}, n)
	copy(buf, s)
	return buf
}

func decodeText(raw []byte) string {
	return strings.TrimRight(string(bytes.TrimRight(raw, "\x00")), " ")
}

// linkTransporter implements modbus.Transporter on top of a session link
type linkTransporter struct {
	link driver.Link
	ctx  context.Context
}

// Send writes one request ADU and reads the MBAP-framed response
func (t *linkTransporter) Send(aduRequest []byte) ([]byte, error) {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	// Bytes still buffered belong to an earlier, rejected exchange.
	stale, err := t.link.InCount(ctx)
	if err != nil {
		return nil, err
	}
	if stale > 0 {
		if _, err := t.link.Read(ctx, window.New(stale)); err != nil {
			return nil, err
		}
	}

	if err := t.link.Write(aduRequest); err != nil {
		return nil, err
	}

	frame := window.New(maxADU)
	err = driver.ReadFrame(ctx, t.link, frame, func(w *window.Window) int {
		if w.Len() < mbapHeaderSize {
			return 0
		}
		return 6 + int(binary.BigEndian.Uint16(w.Bytes()[4:6]))
	})
	if err != nil {
		return nil, err
	}

	raw := frame.Bytes()
	length := int(binary.BigEndian.Uint16(raw[4:6]))
	aduResponse := make([]byte, 6+length)
	copy(aduResponse, raw)
	return aduResponse, nil
}
