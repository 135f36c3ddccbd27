package hueplus

import (
	"fmt"
	"strings"
)

// Command bytes understood by the controller.
const (
	cmdEffect   byte = 0x4b
	cmdPower    byte = 0x46
	cmdInfo     byte = 0x8d
	cmdReset    byte = 0xc0
	responseAck byte = 0x01
)

const (
	// PacketSize is the length of every 0x4b frame: 5 header bytes and 40 color triplets.
	PacketSize = 125
	headerSize = 5
	// Slots is the number of color triplets in a frame.
	Slots = 40

	maxSpeed       = 5
	maxSize        = 4
	defaultSpeed   = 3
	defaultSize    = 3
	maxFrameColors = 8
	customColors   = Slots

	backwardsOffset = 16
	movingOffset    = 8
	frameOffset     = 0x20
)

// Mode is the effect code sent in the third header byte.
type Mode byte

const (
	ModeFixed           Mode = 0x00
	ModeFading          Mode = 0x01
	ModeSpectrum        Mode = 0x02
	ModeMarquee         Mode = 0x03
	ModeCoveringMarquee Mode = 0x04
	ModeAlternating     Mode = 0x05
	ModePulse           Mode = 0x06
	ModeBreathing       Mode = 0x07
	ModeCandle          Mode = 0x09
	ModeWings           Mode = 0x0c
	ModeWave            Mode = 0x0d
)

var modeNames = map[Mode]string{
	ModeFixed:           "fixed",
	ModeFading:          "fading",
	ModeSpectrum:        "spectrum",
	ModeMarquee:         "marquee",
	ModeCoveringMarquee: "covering-marquee",
	ModeAlternating:     "alternating",
	ModePulse:           "pulse",
	ModeBreathing:       "breathing",
	ModeCandle:          "candle",
	ModeWings:           "wings",
	ModeWave:            "wave",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(0x%02x)", byte(m))
}

// Valid reports whether m is one of the known effect codes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts "covering-marquee", "coveringMarquee" and "covering_marquee" alike.
func ParseMode(s string) (Mode, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	for m, name := range modeNames {
		if strings.ReplaceAll(name, "-", "") == norm {
			return m, nil
		}
	}
	return 0, &ValidationError{Param: "mode", Value: s, Reason: "unknown effect mode"}
}

// ElementKind is what is wired to a channel.
type ElementKind byte

const (
	KindLed ElementKind = iota
	KindFan
)

func (k ElementKind) String() string {
	if k == KindFan {
		return "fan"
	}
	return "led"
}

// MarshalText lets topology snapshots serialize as "fan"/"led".
func (k ElementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// slotsPerElement is how many of the 40 color slots one element occupies.
func (k ElementKind) slotsPerElement() int {
	if k == KindFan {
		return 8
	}
	return 10
}

// Channel describes one wiring header of the controller.
type Channel struct {
	ID    int         `json:"id"`
	Kind  ElementKind `json:"kind"`
	Count uint8       `json:"count"`
}

// activeSlots is the number of color slots driven by the elements present.
func (c Channel) activeSlots() int {
	return int(c.Count) * c.Kind.slotsPerElement()
}

// Topology is the snapshot produced by discovery.
type Topology struct {
	Ch1 Channel `json:"ch1"`
	Ch2 Channel `json:"ch2"`
}

// NewTopology builds a snapshot from the two channel descriptions.
func NewTopology(ch1, ch2 Channel) Topology {
	ch1.ID, ch2.ID = 1, 2
	return Topology{Ch1: ch1, Ch2: ch2}
}

// Total is the number of elements on both channels.
func (t Topology) Total() int {
	return int(t.Ch1.Count) + int(t.Ch2.Count)
}

// Channel returns the description of channel id. Channel 0 is the virtual
// aggregate of both headers.
func (t Topology) Channel(id int) (Channel, bool) {
	switch id {
	case 0:
		total := t.Total()
		if total > 0xff {
			total = 0xff
		}
		return Channel{ID: 0, Kind: KindLed, Count: uint8(total)}, true
	case 1:
		return t.Ch1, true
	case 2:
		return t.Ch2, true
	}
	return Channel{}, false
}

func (t Topology) String() string {
	return fmt.Sprintf("ch1=%d×%s ch2=%d×%s total=%d", t.Ch1.Count, t.Ch1.Kind, t.Ch2.Count, t.Ch2.Kind, t.Total())
}

// EffectRequest is one lighting request before encoding. Speed and Size are
// 1-based, as exposed to callers.
type EffectRequest struct {
	Mode      Mode
	Channel   int
	Speed     int
	Size      int
	Moving    bool
	Backwards bool
	Custom    bool
	Colors    []string
}

// frames is the number of packets the request expands into.
func (r EffectRequest) frames() int {
	if r.Custom || len(r.Colors) <= 1 {
		return 1
	}
	return len(r.Colors)
}

// ResponseKind selects what the synchronizer waits for after a write.
type ResponseKind int

const (
	// ExpectNone writes and closes without waiting for the device.
	ExpectNone ResponseKind = iota
	// ExpectAck waits for a first byte equal to 1.
	ExpectAck
	// ExpectInfo waits for at least 5 bytes and extracts offsets 3-4.
	ExpectInfo
)

// Response is the qualified answer of one exchange.
type Response struct {
	Ack  bool
	Info [2]byte
	Raw  []byte
}
