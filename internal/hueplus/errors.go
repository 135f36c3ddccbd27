package hueplus

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound is returned when no controller can be located.
	ErrDeviceNotFound = errors.New("hueplus: device not found")
	// ErrTimeout is returned when no qualifying response arrived in time.
	ErrTimeout = errors.New("hueplus: device did not respond")
	// ErrAlreadyOpen may be returned by Transport.Open; it is not a failure.
	ErrAlreadyOpen = errors.New("hueplus: port is already open")
	// ErrClosed is returned by transports used after Close.
	ErrClosed = errors.New("hueplus: port is closed")
)

// ValidationError reports an effect parameter rejected before any I/O.
type ValidationError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("hueplus: invalid %s (%v): %s", e.Param, e.Value, e.Reason)
}

func invalid(param string, value interface{}, format string, args ...interface{}) error {
	return &ValidationError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// TransportError wraps a failure of the byte-stream collaborator.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hueplus: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPacketError means the encoder produced a frame of the wrong size.
// Such a frame is never written.
type MalformedPacketError struct {
	Length int
}

func (e *MalformedPacketError) Error() string {
	return fmt.Sprintf("hueplus: a malformed command was created (length: %d, must be %d)", e.Length, PacketSize)
}

// ProtocolError reports data from the device that never took the expected shape.
type ProtocolError struct {
	Command byte
	Got     []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("hueplus: unexpected response to command 0x%02x: % x", e.Command, e.Got)
}

// DiscoveryError wraps the cause of a failed topology query.
type DiscoveryError struct {
	Channel int
	Err     error
}

func (e *DiscoveryError) Error() string {
	if e.Channel == 0 {
		return fmt.Sprintf("hueplus: could not get the number of LEDs connected: %v", e.Err)
	}
	return fmt.Sprintf("hueplus: could not get the number of LEDs connected to channel %d: %v", e.Channel, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
