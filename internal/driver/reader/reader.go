// internal/driver/reader/reader.go
package reader

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"weighbridge-service/internal/model"
	"weighbridge-service/internal/window"
	"weighbridge-service/pkg/driver"
)

// ModuleCode selects this adapter in the factory table
const ModuleCode = "READER"

const (
	stx      = 0x02
	etx      = 0x03
	maxFrame = 128
)

// Driver reads card numbers pushed by STX/ETX framed readers.
// READ never blocks for a card: with nothing buffered it returns an empty
// card number, which makes the adapter suitable for polling.
type Driver struct {
	link   driver.Link
	logger *zap.Logger
}

// New creates a card reader adapter
func New(link driver.Link, desc model.Descriptor, logger *zap.Logger) (driver.Adapter, error) {
	return &Driver{
		link:   link,
		logger: logger.With(zap.String("adapter", ModuleCode)),
	}, nil
}

// Role implements driver.Adapter
func (d *Driver) Role() model.Role { return model.RoleCard }

// Execute implements driver.Adapter
func (d *Driver) Execute(ctx context.Context, cmd driver.Command) (driver.Result, error) {
	res := &driver.CardResult{Timestamp: time.Now()}

	if !strings.EqualFold(cmd.Token, driver.TokenRead) {
		res.Fail(driver.ErrorNrProtocol, "unsupported command %q", cmd.Token)
		return res, nil
	}

	pending, err := d.link.InCount(ctx)
	if err != nil {
		return nil, err
	}

	// Only buffered bytes are examined until a frame starts; noise alone is no card.
	frame := window.New(maxFrame)
	one := window.New(1)
	for ; pending > 0 && frame.Len() == 0; pending-- {
		if _, err := d.link.Read(ctx, one); err != nil {
			return nil, err
		}
		if one.Len() == 1 && one.Bytes()[0] == stx {
			frame.Write(one.Bytes())
		}
	}
	if frame.Len() == 0 {
		return res, nil
	}

	err = driver.ReadFrame(ctx, d.link, frame, cardFrame)
	if errors.Is(err, window.ErrOverflow) {
		res.Fail(driver.ErrorNrProtocol, "card frame exceeds %d bytes", maxFrame)
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	raw := frame.Bytes()
	number := strings.TrimSpace(string(raw[1:bytes.IndexByte(raw, etx)]))
	if number == "" {
		res.Fail(driver.ErrorNrProtocol, "empty card frame")
		return res, nil
	}

	res.CardNumber = number
	d.logger.Debug("Card read", zap.Int("length", len(number)))
	return res, nil
}

var cardFrame = driver.DelimitedFrame(stx, etx)
