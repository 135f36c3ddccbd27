package hueplus

import (
	"errors"
	"sync"
)

// Transport is the byte-stream link to the controller. Read is expected to
// return (0, nil) when nothing arrived within the port's read timeout and an
// error once the port is closed. Open on an open port may return ErrAlreadyOpen.
type Transport interface {
	Open() error
	Close() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// openTransport opens t, treating "already open" as success.
func openTransport(t Transport) error {
	if err := t.Open(); err != nil && !errors.Is(err, ErrAlreadyOpen) {
		return &TransportError{Op: "open", Err: err}
	}
	return nil
}

// accumulator collects everything read from the transport while a listener is installed.
type accumulator struct {
	mu  sync.Mutex
	buf []byte
}

func (a *accumulator) append(p []byte) {
	a.mu.Lock()
	a.buf = append(a.buf, p...)
	a.mu.Unlock()
}

func (a *accumulator) snapshot() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]byte, len(a.buf))
	copy(out, a.buf)
	return out
}

// listener reads from the transport into an accumulator until stopped or the
// transport fails.
type listener struct {
	acc  accumulator
	stop chan struct{}
	done chan struct{}
}

func listen(t Transport) *listener {
	l := &listener{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(l.done)
		buf := make([]byte, 64)
		for {
			select {
			case <-l.stop:
				return
			default:
			}
			n, err := t.Read(buf)
			if n > 0 {
				l.acc.append(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return l
}

// detach removes the listener and closes the transport. The reader goroutine
// has exited when detach returns.
func (l *listener) detach(t Transport) error {
	close(l.stop)
	err := t.Close()
	<-l.done
	if err != nil && !errors.Is(err, ErrClosed) {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}
