// internal/driver/fawaws/fawaws.go
package fawaws

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sigurn/crc16"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/window"
	"weighbridge-service/pkg/driver"
)

// ModuleCode selects this adapter in the factory table
const ModuleCode = "FAWAWS"

// Frame layout (CRC-16/MODBUS, little endian, over every preceding byte):
//
//	request:  STX | addr | cmd | crc(2)
//	response: STX | addr | cmd | status | len | payload(len) | crc(2)
//
// The payload is ASCII "weight;unit;alibi". Status bit 0 set means the
// scale is in motion, the high nibble carries the device error code.
const (
	stx        = 0x02
	headerSize = 5
	crcSize    = 2
	maxPayload = 200

	cmdWeigh    = 'W'
	cmdRegister = 'R'

	statusMotion = 0x01
)

var modbusTable = crc16.MakeTable(crc16.CRC16_MODBUS)

func checksum(data []byte) uint16 {
	return crc16.Checksum(data, modbusTable)
}

// Driver speaks the binary checksummed dialect of FAWAWS truck scales
type Driver struct {
	link   driver.Link
	logger *zap.Logger
	addr   byte
}

// New creates a FAWAWS adapter. The bus address comes from the slave_id option.
func New(link driver.Link, desc model.Descriptor, logger *zap.Logger) (driver.Adapter, error) {
	opts := model.NewOptionReader(desc.Options, logger)
	addr := opts.Int(model.OptionSlaveID, 1)
	if addr < 0 || addr > 255 {
		return nil, errors.New("fawaws: slave_id must be 0..255")
	}
	return &Driver{
		link:   link,
		logger: logger.With(zap.String("adapter", ModuleCode)),
		addr:   byte(addr),
	}, nil
}

// Role implements driver.Adapter
func (d *Driver) Role() model.Role { return model.RoleScale }

// Execute implements driver.Adapter
func (d *Driver) Execute(ctx context.Context, cmd driver.Command) (driver.Result, error) {
	res := &driver.ScaleResult{Timestamp: time.Now()}

	var code byte
	switch strings.ToUpper(cmd.Token) {
	case driver.TokenWeigh:
		code = cmdWeigh
	case driver.TokenRegister:
		code = cmdRegister
	default:
		res.Fail(driver.ErrorNrProtocol, "unsupported command %q", cmd.Token)
		return res, nil
	}

	if err := d.link.Write(EncodeRequest(d.addr, code)); err != nil {
		return nil, err
	}
	if err := d.link.Flush(ctx); err != nil {
		return nil, err
	}

	frame := window.New(headerSize + maxPayload + crcSize)
	err := driver.ReadFrame(ctx, d.link, frame, responseLen)
	if errors.Is(err, window.ErrOverflow) {
		res.Fail(driver.ErrorNrProtocol, "frame exceeds %d bytes", frame.Cap())
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	d.decode(frame.Bytes(), code, res)
	return res, nil
}

// EncodeRequest builds a request frame
func EncodeRequest(addr, cmd byte) []byte {
	buf := []byte{stx, addr, cmd, 0, 0}
	binary.LittleEndian.PutUint16(buf[3:], checksum(buf[:3]))
	return buf
}

// EncodeResponse builds a response frame; used by simulators and tests
func EncodeResponse(addr, cmd, status byte, payload string) []byte {
	buf := make([]byte, 0, headerSize+len(payload)+crcSize)
	buf = append(buf, stx, addr, cmd, status, byte(len(payload)))
	buf = append(buf, payload...)
	return binary.LittleEndian.AppendUint16(buf, checksum(buf))
}

// responseLen drops noise before STX and returns the frame length once the header is in
func responseLen(w *window.Window) int {
	if i := w.IndexByte(stx); i > 0 {
		w.Discard(i)
	} else if i < 0 {
		w.Reset()
		return 0
	}
	if w.Len() < headerSize {
		return 0
	}
	return headerSize + int(w.Bytes()[4]) + crcSize
}

func (d *Driver) decode(raw []byte, code byte, res *driver.ScaleResult) {
	total := headerSize + int(raw[4]) + crcSize
	frame := raw[:total]
	body := frame[:total-crcSize]

	want := binary.LittleEndian.Uint16(frame[total-crcSize:])
	if got := checksum(body); got != want {
		res.Fail(driver.ErrorNrProtocol, "checksum mismatch: got %04x want %04x", got, want)
		return
	}
	if frame[1] != d.addr || frame[2] != code {
		res.Fail(driver.ErrorNrProtocol, "unexpected reply addr=%d cmd=%q", frame[1], frame[2])
		return
	}

	status := frame[3]
	if errNr := int(status >> 4); errNr != 0 {
		res.Fail(errNr, "scale error %d", errNr)
		d.logger.Warn("Scale reported an error", zap.Int("error_nr", errNr))
		return
	}
	res.Stable = status&statusMotion == 0

	fields := strings.Split(string(body[headerSize:]), ";")
	if len(fields) != 3 {
		res.Fail(driver.ErrorNrProtocol, "malformed payload %q", body[headerSize:])
		return
	}
	weight, err := decimal.NewFromString(strings.TrimSpace(fields[0]))
	if err != nil {
		res.Fail(driver.ErrorNrProtocol, "malformed weight %q", fields[0])
		return
	}
	res.Weight = weight
	res.Unit = strings.TrimSpace(fields[1])
	res.AlibiNr = strings.TrimSpace(fields[2])
}
