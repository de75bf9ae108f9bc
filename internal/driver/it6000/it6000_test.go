package it6000

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/driver/drivertest"
	"weighbridge-service/internal/model"
	"weighbridge-service/pkg/driver"
)

func newAdapter(t *testing.T, opts model.Options) (driver.Adapter, *drivertest.Device) {
	t.Helper()
	link, dev := drivertest.NewLink(t, time.Second)
	a, err := New(link, model.Descriptor{Code: "W1", DeviceType: model.DeviceTypeScale, ModuleCode: ModuleCode, Options: opts}, zap.NewNop())
	require.NoError(t, err)
	return a, dev
}

func scale(t *testing.T, r driver.Result) *driver.ScaleResult {
	t.Helper()
	sr, ok := r.(*driver.ScaleResult)
	require.True(t, ok, "expected *ScaleResult, got %T", r)
	return sr
}

func TestExecute_Weigh(t *testing.T) {
	a, dev := newAdapter(t, model.Options{"calibration_nr": "EK-42"})
	go func() {
		dev.Expect([]byte("<RM>\r\n"))
		dev.Reply([]byte("\r\n<00;S;12.340;t;>\r\n"))
	}()

	r, err := a.Execute(context.Background(), driver.Command{Token: "weigh"})
	require.NoError(t, err)

	sr := scale(t, r)
	assert.True(t, sr.OK())
	assert.True(t, sr.Weight.Equal(decimal.RequireFromString("12.34")))
	assert.Equal(t, "t", sr.Unit)
	assert.True(t, sr.Stable)
	assert.Equal(t, "EK-42", sr.CalibrationNr)
	assert.Empty(t, sr.AlibiNr)
}

func TestExecute_RegisterReturnsAlibi(t *testing.T) {
	a, dev := newAdapter(t, model.Options{"unit": "kg"})
	go func() {
		dev.Expect([]byte("<RN>\r\n"))
		dev.Reply([]byte("<00;"))
		dev.Reply([]byte("S;40120;t;004711>"))
	}()

	r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenRegister})
	require.NoError(t, err)

	sr := scale(t, r)
	require.True(t, sr.OK(), sr.ErrorText)
	assert.Equal(t, "004711", sr.AlibiNr)
	assert.Equal(t, "kg", sr.Unit, "unit option overrides the telegram")
	assert.Equal(t, "40120", sr.Weight.String())
}

func TestExecute_DeviceErrorPassedThrough(t *testing.T) {
	a, dev := newAdapter(t, nil)
	go func() {
		dev.Expect([]byte("<RM>\r\n"))
		dev.Reply([]byte("<13;M;0;t;>"))
	}()

	r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenWeigh})
	require.NoError(t, err)
	assert.Equal(t, 13, r.Header().ErrorNr)
}

func TestExecute_TwoTelegramsInOneReply(t *testing.T) {
	a, dev := newAdapter(t, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		dev.Expect([]byte("<RM>\r\n"))
		dev.Reply([]byte("<00;M;1.000;t;><00;S;2.000;t;>\r\n"))
		dev.Expect([]byte("<RM>\r\n"))
	}()

	ctx := context.Background()
	r, err := a.Execute(ctx, driver.Command{Token: driver.TokenWeigh})
	require.NoError(t, err)
	first := scale(t, r)
	require.True(t, first.OK(), first.ErrorText)
	assert.Equal(t, "1", first.Weight.String())
	assert.False(t, first.Stable)

	r, err = a.Execute(ctx, driver.Command{Token: driver.TokenWeigh})
	require.NoError(t, err)
	second := scale(t, r)
	require.True(t, second.OK(), second.ErrorText)
	assert.Equal(t, "2", second.Weight.String())
	assert.True(t, second.Stable)

	<-done
}

func TestExecute_MalformedTelegramIsProtocolError(t *testing.T) {
	tests := map[string]string{
		"field count": "<00;S;1.0>",
		"status":      "<00;X;1.0;t;>",
		"weight":      "<00;S;abc;t;>",
		"error code":  "<E1;S;1.0;t;>",
	}

	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			a, dev := newAdapter(t, nil)
			go func() {
				dev.Expect([]byte("<RM>\r\n"))
				dev.Reply([]byte(reply))
			}()

			r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenWeigh})
			require.NoError(t, err)
			assert.Equal(t, driver.ErrorNrProtocol, r.Header().ErrorNr)
		})
	}
}

func TestExecute_UnsupportedCommand(t *testing.T) {
	a, _ := newAdapter(t, nil)

	r, err := a.Execute(context.Background(), driver.Command{Token: "TARE"})
	require.NoError(t, err)
	assert.Equal(t, driver.ErrorNrProtocol, r.Header().ErrorNr)
}

func TestExecute_SilentScaleTimesOut(t *testing.T) {
	a, dev := newAdapter(t, nil)
	go dev.Expect([]byte("<RM>\r\n"))

	_, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenWeigh})
	require.ErrorIs(t, err, model.ErrTimeout)
}

func TestRole(t *testing.T) {
	a, _ := newAdapter(t, nil)
	assert.Equal(t, model.RoleScale, a.Role())
}
