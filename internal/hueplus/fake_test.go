package hueplus

import (
	"errors"
	"sync"
	"time"

	"hueplus2mqtt/internal/logger"
)

// fakeTransport scripts the controller: every write is recorded and the
// responder decides which bytes the device sends back.
type fakeTransport struct {
	mu        sync.Mutex
	open      bool
	overlap   bool
	opens     int
	closes    int
	writes    [][]byte
	pending   []byte
	respond   func(packet []byte, n int) []byte
	failWrite error
}

func newFake(respond func(packet []byte, n int) []byte) *fakeTransport {
	return &fakeTransport{respond: respond}
}

// hueplusDevice answers like a controller with the given channel replies.
func hueplusDevice(ch1, ch2 []byte) func([]byte, int) []byte {
	return func(p []byte, _ int) []byte {
		switch p[0] {
		case cmdReset:
			return nil
		case cmdInfo:
			if p[1] == 1 {
				return ch1
			}
			return ch2
		}
		return []byte{responseAck}
	}
}

func (f *fakeTransport) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		f.overlap = true
		return ErrAlreadyOpen
	}
	f.open = true
	f.opens++
	f.pending = nil
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return ErrClosed
	}
	f.open = false
	f.closes++
	return nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return 0, ErrClosed
	}
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	packet := append([]byte(nil), p...)
	f.writes = append(f.writes, packet)
	if f.respond != nil {
		f.pending = append(f.pending, f.respond(packet, len(f.writes))...)
	}
	return len(p), nil
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return 0, ErrClosed
	}
	if len(f.pending) > 0 {
		n := copy(p, f.pending)
		f.pending = f.pending[n:]
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()
	time.Sleep(time.Millisecond)
	return 0, nil
}

func (f *fakeTransport) isOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeTransport) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func (f *fakeTransport) writesOf(cmd byte) [][]byte {
	var out [][]byte
	for _, w := range f.written() {
		if w[0] == cmd {
			out = append(out, w)
		}
	}
	return out
}

var errUnplugged = errors.New("device unplugged")

func testSession(t Transport) *Session {
	return NewSession(t, logger.Discard(),
		WithTimeout(200*time.Millisecond),
		WithPollInterval(time.Millisecond),
		WithSettleDelay(0),
		WithRestoreInterval(time.Millisecond),
	)
}
