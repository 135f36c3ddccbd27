package hueplus

import (
	"context"
	"sync"
	"time"

	"hueplus2mqtt/internal/logger"
)

// DefaultRestoreInterval is the pause between reset writes during Restore.
const DefaultRestoreInterval = 10 * time.Millisecond

// Session owns the transport and the topology snapshot of one controller.
// Commands are serialized: only one packet is ever in flight.
type Session struct {
	mu              sync.Mutex
	transport       Transport
	sync            *Synchronizer
	topology        Topology
	timeout         time.Duration
	restoreInterval time.Duration
	log             logger.Logger
}

// SessionOption tunes the handshake timings.
type SessionOption func(*Session)

// WithTimeout bounds every exchange.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// WithPollInterval sets how often the accumulated reply is inspected.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.sync.PollInterval = d }
}

// WithSettleDelay sets the pause after a successful exchange.
func WithSettleDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.sync.SettleDelay = d }
}

// WithRestoreInterval sets the pause between reset writes in Restore.
func WithRestoreInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.restoreInterval = d }
}

// NewSession конструктор. The topology is empty until Bootstrap or Discover.
func NewSession(t Transport, log logger.Logger, opts ...SessionOption) *Session {
	s := &Session{
		transport:       t,
		sync:            NewSynchronizer(log),
		timeout:         DefaultTimeout,
		restoreInterval: DefaultRestoreInterval,
		log:             log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect creates a session and runs the bootstrap sequence on it.
func Connect(ctx context.Context, t Transport, log logger.Logger, opts ...SessionOption) (*Session, error) {
	s := NewSession(t, log, opts...)
	if err := s.Bootstrap(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Bootstrap sends the reset handshake and discovers both channels.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sync.Exchange(s.transport, []byte{cmdReset}, ExpectNone, s.timeout); err != nil {
		return &DiscoveryError{Err: err}
	}
	return s.discover(ctx)
}

// Discover re-queries both channels and replaces the topology snapshot.
func (s *Session) Discover(ctx context.Context) (Topology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.discover(ctx); err != nil {
		return Topology{}, err
	}
	return s.topology, nil
}

func (s *Session) discover(ctx context.Context) error {
	var channels [2]Channel
	for i := range channels {
		id := i + 1
		if err := ctx.Err(); err != nil {
			return &DiscoveryError{Channel: id, Err: err}
		}
		resp, err := s.sync.Exchange(s.transport, []byte{cmdInfo, byte(id)}, ExpectInfo, s.timeout)
		if err != nil {
			return &DiscoveryError{Channel: id, Err: err}
		}
		kind := KindLed
		if resp.Info[0] == 0x01 {
			kind = KindFan
		}
		channels[i] = Channel{ID: id, Kind: kind, Count: resp.Info[1]}
	}

	s.topology = NewTopology(channels[0], channels[1])
	s.log.With(logger.Fields{"module": "hueplus"}).Infof("topology: %s", s.topology)
	return nil
}

// Topology returns the current snapshot.
func (s *Session) Topology() Topology {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topology
}

// Apply encodes every frame of req and sends them one by one, each awaiting
// its acknowledgment. All frames are validated before the first write.
func (s *Session) Apply(ctx context.Context, req EffectRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	packets := make([][]byte, req.frames())
	for i := range packets {
		packet, err := EncodeFrame(req, s.topology, i)
		if err != nil {
			return err
		}
		packets[i] = packet
	}

	for i, packet := range packets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.sync.Exchange(s.transport, packet, ExpectAck, s.timeout); err != nil {
			return err
		}
		s.log.With(logger.Fields{"module": "hueplus", "channel": req.Channel}).
			Debugf("%s frame %d/%d applied", req.Mode, i+1, len(packets))
	}
	return nil
}

// TurnOn switches the LED master output on.
func (s *Session) TurnOn(ctx context.Context) error {
	return s.command(ctx, []byte{cmdPower, 0x00, 0xc0, 0x00, 0x00, 0x00, 0xff})
}

// TurnOff switches the LED master output off.
func (s *Session) TurnOff(ctx context.Context) error {
	return s.command(ctx, []byte{cmdPower, 0x00, 0xc0, 0x00, 0x00, 0xff, 0x00})
}

// Clear darkens every slot of channel.
func (s *Session) Clear(ctx context.Context, channel int) error {
	if channel != 1 && channel != 2 {
		return invalid("channel", channel, "channel must be 1 or 2")
	}
	return s.command(ctx, clearPacket(channel))
}

func (s *Session) command(ctx context.Context, packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sync.Exchange(s.transport, packet, ExpectAck, s.timeout)
	return err
}

// Restore writes the reset command until the controller acknowledges. There
// is no attempt limit; only ctx ends an unanswered restore.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.With(logger.Fields{"module": "hueplus"})
	if err := openTransport(s.transport); err != nil {
		return err
	}
	l := listen(s.transport)

	ticker := time.NewTicker(s.restoreInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		if acknowledged(l.acc.snapshot()) {
			log.Infof("device restored after %d reset(s)", attempt-1)
			return l.detach(s.transport)
		}
		if _, err := s.transport.Write([]byte{cmdReset}); err != nil {
			_ = l.detach(s.transport)
			return &TransportError{Op: "write", Err: err}
		}
		select {
		case <-ctx.Done():
			_ = l.detach(s.transport)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func acknowledged(raw []byte) bool {
	for _, b := range raw {
		if b == responseAck {
			return true
		}
	}
	return false
}
