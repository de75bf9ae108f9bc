// internal/driver/it6000/it6000.go
package it6000

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/window"
	"weighbridge-service/pkg/driver"
)

// ModuleCode selects this adapter in the factory table
const ModuleCode = "IT6000"

const (
	frameStart = '<'
	frameEnd   = '>'
	fieldSep   = ';'
	maxFrame   = 256

	cmdReadWeight = "RM"
	cmdRegister   = "RN"
)

// Driver speaks the ASCII telegram dialect of IT-series weighing terminals.
//
// Requests are "<CC>\r\n". Replies are
// "<EE;S;WEIGHT;UNIT;ALIBI>" where EE is the terminal error code (00 = ok),
// S is 'S' (stable) or 'M' (motion) and ALIBI is the legal-for-trade record
// number, present only for registered weighings.
type Driver struct {
	link          driver.Link
	logger        *zap.Logger
	unit          string
	calibrationNr string
}

// New creates an IT6000 adapter
func New(link driver.Link, desc model.Descriptor, logger *zap.Logger) (driver.Adapter, error) {
	opts := model.NewOptionReader(desc.Options, logger)
	return &Driver{
		link:          link,
		logger:        logger.With(zap.String("adapter", ModuleCode)),
		unit:          opts.String(model.OptionUnit, ""),
		calibrationNr: opts.String("calibration_nr", ""),
	}, nil
}

// Role implements driver.Adapter
func (d *Driver) Role() model.Role { return model.RoleScale }

// Execute implements driver.Adapter
func (d *Driver) Execute(ctx context.Context, cmd driver.Command) (driver.Result, error) {
	res := &driver.ScaleResult{Timestamp: time.Now(), CalibrationNr: d.calibrationNr}

	var code string
	switch strings.ToUpper(cmd.Token) {
	case driver.TokenWeigh:
		code = cmdReadWeight
	case driver.TokenRegister:
		code = cmdRegister
	default:
		res.Fail(driver.ErrorNrProtocol, "unsupported command %q", cmd.Token)
		return res, nil
	}

	if err := d.link.Write([]byte("<" + code + ">\r\n")); err != nil {
		return nil, err
	}
	if err := d.link.Flush(ctx); err != nil {
		return nil, err
	}

	frame := window.New(maxFrame)
	err := driver.ReadFrame(ctx, d.link, frame, telegram)
	if errors.Is(err, window.ErrOverflow) {
		res.Fail(driver.ErrorNrProtocol, "telegram exceeds %d bytes", maxFrame)
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	d.parse(frame.Bytes(), res)
	if !res.OK() {
		d.logger.Warn("Scale reported an error",
			zap.Int("error_nr", res.ErrorNr),
			zap.String("error_text", res.ErrorText),
		)
	}
	return res, nil
}

var telegram = driver.DelimitedFrame(frameStart, frameEnd)

func (d *Driver) parse(raw []byte, res *driver.ScaleResult) {
	end := bytes.IndexByte(raw, frameEnd)
	body := string(raw[1:end])
	fields := strings.Split(body, string(fieldSep))
	if len(fields) != 5 {
		res.Fail(driver.ErrorNrProtocol, "malformed telegram %q", body)
		return
	}

	errNr, err := strconv.Atoi(fields[0])
	if err != nil {
		res.Fail(driver.ErrorNrProtocol, "malformed error code %q", fields[0])
		return
	}
	if errNr != 0 {
		res.Fail(errNr, "terminal error %02d", errNr)
		return
	}

	switch fields[1] {
	case "S":
		res.Stable = true
	case "M":
		res.Stable = false
	default:
		res.Fail(driver.ErrorNrProtocol, "unknown status %q", fields[1])
		return
	}

	weight, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil {
		res.Fail(driver.ErrorNrProtocol, "malformed weight %q", fields[2])
		return
	}
	res.Weight = weight

	res.Unit = strings.TrimSpace(fields[3])
	if d.unit != "" {
		res.Unit = d.unit
	}
	res.AlibiNr = strings.TrimSpace(fields[4])
}

// String describes the adapter in logs
func (d *Driver) String() string {
	return fmt.Sprintf("%s(unit=%q)", ModuleCode, d.unit)
}
