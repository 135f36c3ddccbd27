package hueplus

import (
	"errors"
	"testing"
	"time"

	"hueplus2mqtt/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSynchronizer() *Synchronizer {
	s := NewSynchronizer(logger.Discard())
	s.PollInterval = time.Millisecond
	s.SettleDelay = 0
	return s
}

func TestExchangeAck(t *testing.T) {
	fake := newFake(func([]byte, int) []byte { return []byte{0x01} })

	resp, err := testSynchronizer().Exchange(fake, []byte{0x4b, 1}, ExpectAck, 100*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, resp.Ack)
	assert.False(t, fake.isOpen())
	assert.Equal(t, 1, fake.closes)
}

func TestExchangeInfoPayload(t *testing.T) {
	tests := []struct {
		reply []byte
		want  [2]byte
	}{
		{[]byte{0xc0, 0x8d, 0x01, 0x00, 0x06}, [2]byte{0x00, 0x06}},
		{[]byte{0xc0, 0x8d, 0x01, 0x01, 0x04, 0xaa}, [2]byte{0x01, 0x04}},
	}
	for _, tc := range tests {
		fake := newFake(func([]byte, int) []byte { return tc.reply })
		resp, err := testSynchronizer().Exchange(fake, []byte{0x8d, 1}, ExpectInfo, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.Info)
		assert.False(t, fake.isOpen())
	}
}

func TestExchangeTimeout(t *testing.T) {
	fake := newFake(nil)

	start := time.Now()
	_, err := testSynchronizer().Exchange(fake, []byte{0x4b, 1}, ExpectAck, 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.False(t, fake.isOpen())
}

func TestExchangeUnexpectedReply(t *testing.T) {
	fake := newFake(func([]byte, int) []byte { return []byte{0x00, 0x01} })

	_, err := testSynchronizer().Exchange(fake, []byte{0x46, 0}, ExpectAck, 30*time.Millisecond)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, byte(0x46), perr.Command)
	assert.Equal(t, []byte{0x00, 0x01}, perr.Got)

	fake = newFake(func([]byte, int) []byte { return []byte{0xc0, 0x8d} })
	_, err = testSynchronizer().Exchange(fake, []byte{0x8d, 2}, ExpectInfo, 30*time.Millisecond)
	require.True(t, errors.As(err, &perr), "got %v", err)
}

func TestExchangeWriteFailureCloses(t *testing.T) {
	fake := newFake(nil)
	fake.failWrite = errUnplugged

	_, err := testSynchronizer().Exchange(fake, []byte{0x4b, 1}, ExpectAck, time.Second)
	var terr *TransportError
	require.True(t, errors.As(err, &terr), "got %v", err)
	assert.Equal(t, "write", terr.Op)
	assert.True(t, errors.Is(err, errUnplugged))
	assert.False(t, fake.isOpen())
}

func TestExchangeToleratesOpenPort(t *testing.T) {
	fake := newFake(func([]byte, int) []byte { return []byte{0x01} })
	require.NoError(t, fake.Open())

	_, err := testSynchronizer().Exchange(fake, []byte{0x4b, 1}, ExpectAck, 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, fake.isOpen())
}

func TestExchangeExpectNone(t *testing.T) {
	fake := newFake(nil)

	resp, err := testSynchronizer().Exchange(fake, []byte{0xc0}, ExpectNone, time.Second)
	require.NoError(t, err)
	assert.False(t, resp.Ack)
	assert.Equal(t, [][]byte{{0xc0}}, fake.written())
	assert.False(t, fake.isOpen())
}
