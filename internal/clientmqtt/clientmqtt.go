package clientmqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"hueplus2mqtt/internal/controller"
	"hueplus2mqtt/internal/hueplus"
	"hueplus2mqtt/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    publisher
	opts      *mqtt.ClientOptions
	cmds      chan<- controller.Command
}

// publisher is the part of mqtt.Client used after connecting.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// MQTTClient is a convenience interface to use within this application.
type MQTTClient interface {
	controller.Listener
	Start(ctx context.Context, cmds chan<- controller.Command) error
	Stop() error
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	return &ClientMQTT{
		log:       log,
		cfgClient: cfgClient,
	}
}

func (c *ClientMQTT) Start(ctx context.Context, cmds chan<- controller.Command) error {
	// TODO перенаправить в logger
	if c.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx
	c.cmds = cmds

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(true).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	client := mqtt.NewClient(c.opts)
	c.client = client

	token := client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		// прерываем повторные попытки подключения
		client.Disconnect(0)
		return c.ctx.Err()
	}

	c.log.With(logger.Fields{"module": "mqtt"}).Infof("Status: %v", client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if client, ok := c.client.(mqtt.Client); ok && client.IsConnected() {
		client.Disconnect(500)
	}
	return nil
}

// connectHandler (re)subscribes the command topics after every connect.
func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.With(logger.Fields{"module": "mqtt"}).Info("client connected to server")
	for _, rel := range subscriptions {
		c.sub(c.topic(rel))
	}
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.With(logger.Fields{"module": "mqtt"}).Errorf("server connect lost: %v", err)
}

// messageHandler blocks until the command is queued. With OrderMatters set
// paho calls it sequentially, so commands reach the controller in arrival order.
func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.With(logger.Fields{"module": "mqtt"}).Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())
	c.sendCommand(msg)
}

func (c *ClientMQTT) sendCommand(msg mqtt.Message) {
	cmd, err := parseMessage(c.cfgClient.TopicPrefix, msg.Topic(), msg.Payload())
	if err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("message rejected: %v", err)
		c.publish("error", false, ErrorPayload{Command: msg.Topic(), Error: err.Error()})
		return
	}
	select {
	case <-c.ctx.Done():
	case c.cmds <- cmd:
		c.log.With(logger.Fields{"module": "mqtt"}).Debugf("%s command queued", cmd.Kind)
	}
}

func (c *ClientMQTT) sub(topic string) {
	token := c.client.Subscribe(topic, c.cfgClient.Qos, nil)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.With(logger.Fields{"module": "mqtt"}).Debugf("topic %s subscribed", topic)
	}()
}

// OnState publishes the applied state, retained.
func (c *ClientMQTT) OnState(st controller.State) {
	c.publish(stateTopic(st), true, st)
}

// OnTopology publishes the discovered topology, retained.
func (c *ClientMQTT) OnTopology(topo hueplus.Topology) {
	c.publish("topology", true, struct {
		hueplus.Topology
		Total int `json:"total"`
	}{topo, topo.Total()})
}

// OnError publishes a failed command.
func (c *ClientMQTT) OnError(cmd controller.Command, err error) {
	c.publish("error", false, ErrorPayload{Command: cmd.Kind.String(), Error: err.Error()})
}

func (c *ClientMQTT) publish(rel string, retained bool, v interface{}) {
	if c.client == nil {
		return
	}
	topic := c.topic(rel)
	msg, err := json.Marshal(v)
	if err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("public topic. msg: %v", err)
		return
	}
	token := c.client.Publish(topic, c.cfgClient.Qos, retained, msg)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("error publish topic %s. %v", topic, token.Error())
			}
		}
	}()
}
