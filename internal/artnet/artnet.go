package artnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"hueplus2mqtt/internal/controller"
	"hueplus2mqtt/internal/hueplus"
	"hueplus2mqtt/internal/logger"
	"github.com/Haba1234/go-artnet"
)

// Conf описывает, куда зеркалируется состояние контроллера.
type Conf struct {
	CIDR         string // CIDR - сеть интерфейса Art-Net.
	Universe     uint16 // Universe: старший байт - SubUni, младший байт - Net.
	StartChannel uint16 // StartChannel - DMX канал красного цвета первого канала HUE+.
	MaxFPS       int
}

// ArtNet mirrors the colors shown by the controller onto a DMX universe.
// Each HUE+ channel occupies three DMX channels: red, green, blue.
type ArtNet struct {
	logger      logger.Logger
	cfg         Conf
	sender      *artnet.Controller
	state       *State
	sendTrigger chan UniverseStateMap
	ctx         context.Context
}

// Mirror is a convenience interface to use within this application.
type Mirror interface {
	controller.Listener
	Start(ctx context.Context) error
	Stop()
}

// NewController returns an art-net mirror.
func NewController(log logger.Logger, cfg Conf) (*ArtNet, error) {
	ip, err := FindArtNetIP(cfg.CIDR)
	if err != nil {
		return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
	}

	if len(ip) == 0 {
		return nil, errors.New("failed to find the art-net IP: No interface found")
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}

	host = strings.ToLower(strings.Split(host, ".")[0])
	log.With(logger.Fields{"module": "art-net"}).Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	senderLogger := artnet.NewDefaultLogger("info")

	fps := cfg.MaxFPS
	if fps <= 0 {
		fps = 1
	}

	control := newArtNet(log, cfg)
	control.sender = artnet.NewController(host, ip, senderLogger, artnet.MaxFPS(fps))
	return control, nil
}

func newArtNet(log logger.Logger, cfg Conf) *ArtNet {
	return &ArtNet{
		logger:      log,
		cfg:         cfg,
		state:       NewState(),
		sendTrigger: make(chan UniverseStateMap, 100),
		ctx:         context.Background(),
	}
}

// Start the ArtNet.
func (c *ArtNet) Start(ctx context.Context) error {
	if err := c.sender.Start(); err != nil {
		return fmt.Errorf("failed to start Controller: %w", err)
	}

	c.ctx = ctx
	go c.sendBackground()
	go c.debugDevices()
	return nil
}

// Stop the ArtNet.
func (c *ArtNet) Stop() {
	close(c.sendTrigger)
	c.sender.Stop()
}

// OnState mirrors the first color of an effect. Spectrum is generated by the
// device and is not mirrored.
func (c *ArtNet) OnState(st controller.State) {
	values, ok := c.stateValues(st)
	if !ok {
		return
	}
	c.state.SetChannelValues(values)
	c.triggerSend()
}

func (c *ArtNet) OnTopology(topo hueplus.Topology) {
	c.logger.With(logger.Fields{"module": "art-net"}).Debugf("topology %s", topo)
}

func (c *ArtNet) OnError(controller.Command, error) {}

// stateValues maps a state onto DMX channel values.
func (c *ArtNet) stateValues(st controller.State) ([]ChannelValue, bool) {
	switch {
	case st.Power == "off":
		return append(c.rgb(1, 0, 0, 0), c.rgb(2, 0, 0, 0)...), true
	case st.Power != "":
		return nil, false
	case st.Mode == "off":
		return c.rgb(st.Channel, 0, 0, 0), true
	case len(st.Colors) == 0:
		return nil, false
	}
	color, err := hueplus.ParseColor(st.Colors[0])
	if err != nil {
		return nil, false
	}
	r, g, b := color.RGB()
	return c.rgb(st.Channel, r, g, b), true
}

func (c *ArtNet) rgb(channel int, r, g, b uint8) []ChannelValue {
	base := c.cfg.StartChannel + uint16(channel-1)*3
	return []ChannelValue{
		{c.cfg.Universe, base, r},
		{c.cfg.Universe, base + 1, g},
		{c.cfg.Universe, base + 2, b},
	}
}

func (c *ArtNet) triggerSend() {
	c.logger.With(logger.Fields{"module": "art-net"}).Debug("DMX. Отправка в канал")
	select {
	case <-c.ctx.Done():
	case c.sendTrigger <- c.state.Get():
	}
}

func (c *ArtNet) sendBackground() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case data, ok := <-c.sendTrigger:
			if !ok {
				return
			}
			for u, dmx := range data {
				c.logger.With(logger.Fields{"module": "art-net"}).Debugf("DMX. Отправка в контроллер по адресу %v", u)
				c.sender.SendDMXToAddress(dmx.toByteSlice(), c.universeToAddress(u))
			}
		}
	}
}

// universeToAddress converts a dmx universe to art-net address
// universe: старший байт - SubUni, младший байт - Net.
func (c *ArtNet) universeToAddress(universe uint16) artnet.Address {
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, universe)

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}
}

// NodeToString returns a string representation of the given Node.
func NodeToString(n *artnet.ControlledNode) (string, NodeTopic) {
	var inputs, outputs []string
	var out []uint16
	for _, p := range n.Node.InputPorts {
		inputs = append(inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	for _, p := range n.Node.OutputPorts {
		outputs = append(outputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
		out = append(out, uint16(p.Address.Integer()))
	}

	return fmt.Sprintf(
			" | IP=%s name=%q type=%q manufacturer=%q desc=%q inputs=%q outputs=%q",
			n.UDPAddress.String(), n.Node.Name, n.Node.Type,
			n.Node.Manufacturer, n.Node.Description,
			strings.Join(inputs, "; "), strings.Join(outputs, "; "),
		), NodeTopic{
			Output: out,
		}
}

// debugDevices logs the visible nodes and warns when none listens on the mirrored universe.
func (c *ArtNet) debugDevices() {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
		}
		var nodes []string
		listening := false
		for _, n := range c.sender.Nodes {
			node, topic := NodeToString(n)
			nodes = append(nodes, node)
			for _, out := range topic.Output {
				if out == c.cfg.Universe {
					listening = true
				}
			}
		}
		log := c.logger.With(logger.Fields{"module": "art-net"})
		log.Debugf("Currently %d devices are registered: %v", len(nodes), nodes)
		if !listening {
			log.Warnf("no node outputs universe %d", c.cfg.Universe)
		}
	}
}
