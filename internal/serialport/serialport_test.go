package serialport

import (
	"errors"
	"testing"
	"time"

	"hueplus2mqtt/internal/config"
	"hueplus2mqtt/internal/hueplus"
	"hueplus2mqtt/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		port *enumerator.PortDetails
		want bool
	}{
		{&enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "04D8", PID: "00DF"}, true},
		{&enumerator.PortDetails{Name: "COM3", IsUSB: true, VID: "04d8", PID: "00df"}, true},
		{&enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"}, false},
		{&enumerator.PortDetails{Name: "/dev/ttyS0", IsUSB: false}, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, matches(tc.port), tc.port.Name)
	}
}

func TestClosedPort(t *testing.T) {
	p := New(logger.Discard(), "/dev/does-not-exist", config.Default().Serial)
	assert.Equal(t, "/dev/does-not-exist", p.Name())

	_, err := p.Write([]byte{0xc0})
	assert.True(t, errors.Is(err, hueplus.ErrClosed))
	_, err = p.Read(make([]byte, 8))
	assert.True(t, errors.Is(err, hueplus.ErrClosed))
	assert.True(t, errors.Is(p.Close(), hueplus.ErrClosed))

	require.Error(t, p.Open())
}

func TestReadTimeoutHasFloor(t *testing.T) {
	cfg := config.Default().Serial
	cfg.ReadTimeoutMs = 0
	assert.Equal(t, minReadTimeout, New(logger.Discard(), "/dev/ttyACM0", cfg).readTimeout)

	cfg.ReadTimeoutMs = 25
	assert.Equal(t, 25*time.Millisecond, New(logger.Discard(), "/dev/ttyACM0", cfg).readTimeout)
}
