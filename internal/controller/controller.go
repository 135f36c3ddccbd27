package controller

import (
	"context"
	"fmt"
	"sync"

	"hueplus2mqtt/internal/hueplus"
	"hueplus2mqtt/internal/logger"
)

// Controller executes queued commands one at a time against the device.
type Controller struct {
	logger    logger.Logger
	dev       Device
	mu        sync.Mutex
	listeners []Listener
	done      chan struct{}
}

// New конструктор.
func New(log logger.Logger, dev Device) *Controller {
	return &Controller{
		logger: log,
		dev:    dev,
		done:   make(chan struct{}),
	}
}

// Subscribe registers l for state, topology and error notifications.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// Start consumes cmds until ctx is done or cmds is closed.
func (c *Controller) Start(ctx context.Context, cmds <-chan Command) {
	go c.processing(ctx, cmds)
}

// Done is closed once the processing loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) processing(ctx context.Context, cmds <-chan Command) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-cmds:
			if !ok {
				return
			}
			if err := c.Handle(ctx, cmd); err != nil {
				c.logger.With(logger.Fields{"module": "controller", "command": cmd.Kind.String()}).Errorf("command failed: %v", err)
				c.each(func(l Listener) { l.OnError(cmd, err) })
			}
		}
	}
}

// Handle runs a single command and notifies listeners on success.
func (c *Controller) Handle(ctx context.Context, cmd Command) error {
	log := c.logger.With(logger.Fields{"module": "controller", "command": cmd.Kind.String()})

	switch cmd.Kind {
	case KindEffect:
		if err := c.dev.Apply(ctx, cmd.Effect); err != nil {
			return err
		}
		st := effectState(cmd.Effect)
		log.Infof("channel %d: %s %v", st.Channel, st.Mode, st.Colors)
		c.each(func(l Listener) { l.OnState(st) })

	case KindPower:
		var err error
		power := "on"
		if cmd.On {
			err = c.dev.TurnOn(ctx)
		} else {
			power = "off"
			err = c.dev.TurnOff(ctx)
		}
		if err != nil {
			return err
		}
		log.Infof("LED power %s", power)
		c.each(func(l Listener) { l.OnState(State{Power: power}) })

	case KindClear:
		if err := c.dev.Clear(ctx, cmd.Channel); err != nil {
			return err
		}
		log.Infof("channel %d cleared", cmd.Channel)
		c.each(func(l Listener) { l.OnState(State{Channel: cmd.Channel, Mode: "off"}) })

	case KindRestore:
		if err := c.dev.Restore(ctx); err != nil {
			return err
		}
		return c.rediscover(ctx)

	case KindDiscover:
		return c.rediscover(ctx)

	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
	return nil
}

func (c *Controller) rediscover(ctx context.Context) error {
	topo, err := c.dev.Discover(ctx)
	if err != nil {
		return err
	}
	c.each(func(l Listener) { l.OnTopology(topo) })
	return nil
}

// Announce pushes the current topology to every listener.
func (c *Controller) Announce() {
	topo := c.dev.Topology()
	c.each(func(l Listener) { l.OnTopology(topo) })
}

func (c *Controller) each(fn func(Listener)) {
	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		fn(l)
	}
}

func effectState(req hueplus.EffectRequest) State {
	st := State{
		Channel:   req.Channel,
		Mode:      req.Mode.String(),
		Colors:    req.Colors,
		Speed:     req.Speed,
		Size:      req.Size,
		Moving:    req.Moving,
		Backwards: req.Backwards,
		Custom:    req.Custom,
	}
	if req.Mode == hueplus.ModeSpectrum {
		st.Colors = nil
	}
	return st
}
