package hueplus

import (
	"fmt"
	"time"

	"hueplus2mqtt/internal/logger"
)

const (
	// DefaultPollInterval and DefaultTimeout give 100 polls per exchange.
	DefaultPollInterval = 10 * time.Millisecond
	DefaultTimeout      = time.Second
	DefaultSettleDelay  = 10 * time.Millisecond

	infoReplyLen = 5
)

// Synchronizer writes one packet and waits for the answer that qualifies it.
// The transport is closed when Exchange returns, whatever the outcome.
type Synchronizer struct {
	PollInterval time.Duration
	SettleDelay  time.Duration
	log          logger.Logger
}

// NewSynchronizer конструктор.
func NewSynchronizer(log logger.Logger) *Synchronizer {
	return &Synchronizer{
		PollInterval: DefaultPollInterval,
		SettleDelay:  DefaultSettleDelay,
		log:          log,
	}
}

// Exchange opens the transport, writes packet and polls the accumulated reply
// until it satisfies expect or timeout elapses.
func (s *Synchronizer) Exchange(t Transport, packet []byte, expect ResponseKind, timeout time.Duration) (Response, error) {
	if len(packet) == 0 {
		return Response{}, &MalformedPacketError{Length: 0}
	}
	cmd := packet[0]
	log := s.log.With(logger.Fields{"module": "hueplus", "command": fmt.Sprintf("0x%02x", cmd)})

	if err := openTransport(t); err != nil {
		return Response{}, err
	}
	l := listen(t)

	n, err := t.Write(packet)
	if err == nil && n != len(packet) {
		err = fmt.Errorf("incomplete write: %d/%d bytes", n, len(packet))
	}
	if err != nil {
		_ = l.detach(t)
		return Response{}, &TransportError{Op: "write", Err: err}
	}
	log.Debugf("wrote %d bytes", len(packet))

	if expect == ExpectNone {
		if err := l.detach(t); err != nil {
			return Response{}, err
		}
		time.Sleep(s.SettleDelay)
		return Response{}, nil
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		raw := l.acc.snapshot()
		if resp, ok := qualify(raw, expect); ok {
			if err := l.detach(t); err != nil {
				return Response{}, err
			}
			log.Debugf("response % x", raw)
			time.Sleep(s.SettleDelay)
			return resp, nil
		}
		if !time.Now().Before(deadline) {
			_ = l.detach(t)
			// A late byte may have arrived between the check and detach.
			raw = l.acc.snapshot()
			if resp, ok := qualify(raw, expect); ok {
				return resp, nil
			}
			if len(raw) > 0 {
				return Response{}, &ProtocolError{Command: cmd, Got: raw}
			}
			return Response{}, fmt.Errorf("command 0x%02x after %v: %w", cmd, timeout, ErrTimeout)
		}
		<-ticker.C
	}
}

func qualify(raw []byte, expect ResponseKind) (Response, bool) {
	switch expect {
	case ExpectAck:
		if len(raw) > 0 && raw[0] == responseAck {
			return Response{Ack: true, Raw: raw}, true
		}
	case ExpectInfo:
		if len(raw) >= infoReplyLen {
			return Response{Info: [2]byte{raw[3], raw[4]}, Raw: raw}, true
		}
	}
	return Response{}, false
}
