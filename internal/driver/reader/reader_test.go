package reader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weighbridge-service/internal/driver/drivertest"
	"weighbridge-service/internal/model"
	"weighbridge-service/pkg/driver"
)

func newAdapter(t *testing.T) (driver.Adapter, *drivertest.Device) {
	t.Helper()
	link, dev := drivertest.NewLink(t, time.Second)
	a, err := New(link, model.Descriptor{Code: "C1", DeviceType: model.DeviceTypeCard, ModuleCode: ModuleCode}, zap.NewNop())
	require.NoError(t, err)
	return a, dev
}

func TestExecute_NoCardPresented(t *testing.T) {
	a, _ := newAdapter(t)

	r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenRead})
	require.NoError(t, err)

	cr := r.(*driver.CardResult)
	assert.True(t, cr.OK())
	assert.Empty(t, cr.CardNumber)
}

func TestExecute_CardPushedByReader(t *testing.T) {
	a, dev := newAdapter(t)
	go dev.Reply([]byte("\x02 04A1B2C3D4 \x03\r\n"))

	var cr *driver.CardResult
	require.Eventually(t, func() bool {
		r, err := a.Execute(context.Background(), driver.Command{Token: "read"})
		require.NoError(t, err)
		cr = r.(*driver.CardResult)
		return cr.CardNumber != ""
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "04A1B2C3D4", cr.CardNumber)
}

func TestExecute_EmptyFrame(t *testing.T) {
	a, dev := newAdapter(t)
	go dev.Reply([]byte{stx, etx})

	require.Eventually(t, func() bool {
		r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenRead})
		require.NoError(t, err)
		return r.Header().ErrorNr == driver.ErrorNrProtocol
	}, time.Second, 10*time.Millisecond)
}

func TestExecute_UnsupportedCommand(t *testing.T) {
	a, _ := newAdapter(t)

	r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenWeigh})
	require.NoError(t, err)
	assert.Equal(t, driver.ErrorNrProtocol, r.Header().ErrorNr)
	assert.Equal(t, model.RoleCard, a.Role())
}

func TestExecute_TwoCardsInOneBurst(t *testing.T) {
	a, dev := newAdapter(t)
	go dev.Reply([]byte("\x02AAA\x03\x02BBB\x03"))

	read := func() string {
		r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenRead})
		require.NoError(t, err)
		require.True(t, r.Header().OK(), r.Header().ErrorText)
		return r.(*driver.CardResult).CardNumber
	}

	var first string
	require.Eventually(t, func() bool {
		first = read()
		return first != ""
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "AAA", first)
	assert.Equal(t, "BBB", read())
	assert.Empty(t, read())
}

func TestExecute_TrailingNoiseIsNoCard(t *testing.T) {
	a, dev := newAdapter(t)
	go dev.Reply([]byte("\x0277\x03\r\n"))

	require.Eventually(t, func() bool {
		r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenRead})
		require.NoError(t, err)
		return r.(*driver.CardResult).CardNumber == "77"
	}, time.Second, 10*time.Millisecond)

	start := time.Now()
	r, err := a.Execute(context.Background(), driver.Command{Token: driver.TokenRead})
	require.NoError(t, err)
	assert.Empty(t, r.(*driver.CardResult).CardNumber)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "buffered noise must not wait for the device")
}
