// Package serialport connects the controller core to a USB serial device.
package serialport

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"hueplus2mqtt/internal/config"
	"hueplus2mqtt/internal/hueplus"
	"hueplus2mqtt/internal/logger"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// VendorID and ProductID identify the controller on the USB bus.
	VendorID  = "04d8"
	ProductID = "00df"

	// minReadTimeout не даёт читающей горутине крутиться вхолостую:
	// при нулевом таймауте Read возвращается сразу.
	minReadTimeout = time.Millisecond
)

// Port implements hueplus.Transport. The underlying serial port is opened
// and released for every exchange.
type Port struct {
	name        string
	mode        *serial.Mode
	readTimeout time.Duration
	log         logger.Logger

	mu   sync.Mutex
	port serial.Port
}

// New creates a closed Port for the named device.
func New(log logger.Logger, name string, cfg config.SerialConf) *Port {
	readTimeout := cfg.ReadTimeout()
	if readTimeout < minReadTimeout {
		log.With(logger.Fields{"module": "serial"}).Warnf("read timeout %v is too small, using %v", readTimeout, minReadTimeout)
		readTimeout = minReadTimeout
	}
	return &Port{
		name:        name,
		mode:        &serial.Mode{BaudRate: cfg.Baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
		readTimeout: readTimeout,
		log:         log,
	}
}

// Open resolves the port name (searching by VID/PID when cfg.Port is empty)
// and returns a Port ready for a session.
func Open(log logger.Logger, cfg config.SerialConf) (*Port, error) {
	name := cfg.Port
	if name == "" {
		found, err := Find()
		if err != nil {
			return nil, err
		}
		name = found
	}
	log.With(logger.Fields{"module": "serial"}).Infof("using serial port %s at %d baud", name, cfg.Baud)
	return New(log, name, cfg), nil
}

// Find returns the name of the first port whose USB identifiers match the controller.
func Find() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("could not get a list of connected serial devices: %v: %w", err, hueplus.ErrDeviceNotFound)
	}
	for _, p := range ports {
		if matches(p) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("no port with VID=%s PID=%s: %w", VendorID, ProductID, hueplus.ErrDeviceNotFound)
}

func matches(p *enumerator.PortDetails) bool {
	return p.IsUSB && strings.EqualFold(p.VID, VendorID) && strings.EqualFold(p.PID, ProductID)
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.name
}

func (p *Port) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port != nil {
		return hueplus.ErrAlreadyOpen
	}
	port, err := serial.Open(p.name, p.mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", p.name, err)
	}
	if err := port.SetReadTimeout(p.readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", p.name, err)
	}
	p.port = port
	p.log.With(logger.Fields{"module": "serial"}).Debugf("%s opened", p.name)
	return nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	port := p.port
	p.port = nil
	p.mu.Unlock()

	if port == nil {
		return hueplus.ErrClosed
	}
	return port.Close()
}

func (p *Port) current() (serial.Port, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil, hueplus.ErrClosed
	}
	return p.port, nil
}

// Read returns (0, nil) when the read timeout expires without data.
func (p *Port) Read(b []byte) (int, error) {
	port, err := p.current()
	if err != nil {
		return 0, err
	}
	return port.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	port, err := p.current()
	if err != nil {
		return 0, err
	}
	return port.Write(b)
}
