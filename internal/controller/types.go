package controller

import (
	"context"

	"hueplus2mqtt/internal/hueplus"
)

// Kind is the type of a queued command.
type Kind int

const (
	KindEffect Kind = iota
	KindPower
	KindClear
	KindRestore
	KindDiscover
)

func (k Kind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindPower:
		return "power"
	case KindClear:
		return "clear"
	case KindRestore:
		return "restore"
	case KindDiscover:
		return "discover"
	}
	return "unknown"
}

// Command is one unit of work for the controller.
type Command struct {
	Kind    Kind
	Effect  hueplus.EffectRequest // Effect - для KindEffect.
	Channel int                   // Channel - для KindClear.
	On      bool                  // On - для KindPower.
}

// State is what the controller shows after a successful command.
type State struct {
	Channel   int      `json:"channel"`
	Power     string   `json:"power,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	Colors    []string `json:"colors,omitempty"`
	Speed     int      `json:"speed,omitempty"`
	Size      int      `json:"size,omitempty"`
	Moving    bool     `json:"moving,omitempty"`
	Backwards bool     `json:"backwards,omitempty"`
	Custom    bool     `json:"custom,omitempty"`
}

// Device is the part of hueplus.Session the controller drives.
type Device interface {
	Apply(ctx context.Context, req hueplus.EffectRequest) error
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
	Clear(ctx context.Context, channel int) error
	Restore(ctx context.Context) error
	Discover(ctx context.Context) (hueplus.Topology, error)
	Topology() hueplus.Topology
}

// Listener receives the outcome of every command.
type Listener interface {
	OnState(State)
	OnTopology(hueplus.Topology)
	OnError(Command, error)
}
