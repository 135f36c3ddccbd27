package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hueplus2mqtt/internal/controller"
	"hueplus2mqtt/internal/hueplus"
	"hueplus2mqtt/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct{ done chan struct{} }

func newDoneToken() *doneToken {
	t := &doneToken{done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return nil }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeBroker struct {
	mu   sync.Mutex
	pubs []published
	subs []string
}

func (b *fakeBroker) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pubs = append(b.pubs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return newDoneToken()
}

func (b *fakeBroker) Subscribe(topic string, _ byte, _ mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, topic)
	return newDoneToken()
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func testClient(broker *fakeBroker, cmds chan controller.Command) *ClientMQTT {
	c := NewClient(logger.Discard(), MQTTConf{TopicPrefix: "hueplus"})
	c.ctx = context.Background()
	c.client = broker
	c.cmds = cmds
	return c
}

func TestParseMessage(t *testing.T) {
	cmd, err := parseMessage("hueplus", "hueplus/channel/2/set",
		[]byte(`{"mode":"alternating","colors":["ff0000","0000ff"],"speed":5,"moving":true}`))
	require.NoError(t, err)
	assert.Equal(t, controller.KindEffect, cmd.Kind)
	assert.Equal(t, hueplus.ModeAlternating, cmd.Effect.Mode)
	assert.Equal(t, 2, cmd.Effect.Channel)
	assert.Equal(t, 5, cmd.Effect.Speed)
	assert.Equal(t, 3, cmd.Effect.Size)
	assert.True(t, cmd.Effect.Moving)

	cmd, err = parseMessage("hueplus/", "hueplus/channel/1/set", []byte(`{"mode":"fixed","color":"#00ff00"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"#00ff00"}, cmd.Effect.Colors)

	cmd, err = parseMessage("hueplus", "hueplus/channel/1/clear", nil)
	require.NoError(t, err)
	assert.Equal(t, controller.Command{Kind: controller.KindClear, Channel: 1}, cmd)

	cmd, err = parseMessage("hueplus", "hueplus/power/set", []byte(`"ON"`))
	require.NoError(t, err)
	assert.Equal(t, controller.Command{Kind: controller.KindPower, On: true}, cmd)

	cmd, err = parseMessage("hueplus", "hueplus/restore", nil)
	require.NoError(t, err)
	assert.Equal(t, controller.KindRestore, cmd.Kind)

	cmd, err = parseMessage("hueplus", "hueplus/discover", nil)
	require.NoError(t, err)
	assert.Equal(t, controller.KindDiscover, cmd.Kind)
}

func TestParseMessageRejects(t *testing.T) {
	tests := []struct {
		topic   string
		payload string
	}{
		{"other/channel/1/set", `{"mode":"fixed","color":"fff"}`},
		{"hueplus/channel/x/set", `{"mode":"fixed","color":"fff"}`},
		{"hueplus/channel/1/set", `not json`},
		{"hueplus/channel/1/set", `{"mode":"disco","color":"fff"}`},
		{"hueplus/channel/1/set", `{"mode":"wave","color":"fff"}`},
		{"hueplus/channel/1/set", `{"mode":"alternating","color":"fff"}`},
		{"hueplus/power/set", `maybe`},
		{"hueplus/channel/1/state", `{}`},
	}
	for _, tc := range tests {
		_, err := parseMessage("hueplus", tc.topic, []byte(tc.payload))
		assert.Error(t, err, "%s %s", tc.topic, tc.payload)
	}
}

func TestSendCommandQueues(t *testing.T) {
	cmds := make(chan controller.Command, 1)
	c := testClient(&fakeBroker{}, cmds)

	c.sendCommand(fakeMessage{topic: "hueplus/power/set", payload: []byte("off")})
	select {
	case cmd := <-cmds:
		assert.Equal(t, controller.Command{Kind: controller.KindPower}, cmd)
	default:
		t.Fatal("command was not queued")
	}
}

func TestMessagesQueuedInArrivalOrder(t *testing.T) {
	const n = 50
	cmds := make(chan controller.Command)
	c := testClient(&fakeBroker{}, cmds)

	got := make(chan []bool)
	go func() {
		var seen []bool
		for i := 0; i < n; i++ {
			seen = append(seen, (<-cmds).On)
		}
		got <- seen
	}()

	var want []bool
	for i := 0; i < n; i++ {
		on := i%2 == 0
		want = append(want, on)
		payload := "OFF"
		if on {
			payload = "ON"
		}
		c.messageHandler(nil, fakeMessage{topic: "hueplus/power/set", payload: []byte(payload)})
	}

	select {
	case seen := <-got:
		assert.Equal(t, want, seen)
	case <-time.After(time.Second):
		t.Fatal("commands were not delivered")
	}
}

func TestMessageHandlerKeepsChannelOrder(t *testing.T) {
	cmds := make(chan controller.Command, 4)
	c := testClient(&fakeBroker{}, cmds)

	for _, ch := range []int{2, 1, 1, 2} {
		c.messageHandler(nil, fakeMessage{topic: fmt.Sprintf("hueplus/channel/%d/clear", ch)})
	}
	close(cmds)

	var channels []int
	for cmd := range cmds {
		channels = append(channels, cmd.Channel)
	}
	assert.Equal(t, []int{2, 1, 1, 2}, channels)
}

func TestStartReturnsContextError(t *testing.T) {
	c := NewClient(logger.Discard(), MQTTConf{Schema: "tcp", Host: "127.0.0.1", Port: "1", TopicPrefix: "hueplus"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Start(ctx, make(chan controller.Command, 1))
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestSendCommandPublishesRejection(t *testing.T) {
	broker := &fakeBroker{}
	c := testClient(broker, make(chan controller.Command, 1))

	c.sendCommand(fakeMessage{topic: "hueplus/channel/1/set", payload: []byte(`{"mode":"fixed","color":"zz"}`)})

	require.Len(t, broker.pubs, 1)
	assert.Equal(t, "hueplus/error", broker.pubs[0].topic)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(broker.pubs[0].payload, &p))
	assert.Equal(t, "hueplus/channel/1/set", p.Command)
	assert.Contains(t, p.Error, "color")
}

func TestListenerPublishes(t *testing.T) {
	broker := &fakeBroker{}
	c := testClient(broker, nil)

	c.OnState(controller.State{Channel: 2, Mode: "fixed", Colors: []string{"ff0000"}})
	c.OnState(controller.State{Power: "off"})
	c.OnTopology(hueplus.NewTopology(hueplus.Channel{Kind: hueplus.KindFan, Count: 3}, hueplus.Channel{Count: 1}))

	require.Len(t, broker.pubs, 3)
	assert.Equal(t, "hueplus/channel/2/state", broker.pubs[0].topic)
	assert.True(t, broker.pubs[0].retained)
	assert.Equal(t, "hueplus/power/state", broker.pubs[1].topic)
	assert.Equal(t, "hueplus/topology", broker.pubs[2].topic)
	assert.JSONEq(t,
		`{"ch1":{"id":1,"kind":"fan","count":3},"ch2":{"id":2,"kind":"led","count":1},"total":4}`,
		string(broker.pubs[2].payload))
}

func TestConnectHandlerSubscribes(t *testing.T) {
	broker := &fakeBroker{}
	c := testClient(broker, nil)

	c.connectHandler(nil)

	assert.Equal(t, []string{
		"hueplus/channel/+/set",
		"hueplus/channel/+/clear",
		"hueplus/power/set",
		"hueplus/restore",
		"hueplus/discover",
	}, broker.subs)
}
