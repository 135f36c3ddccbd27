package clientmqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"hueplus2mqtt/internal/controller"
	"hueplus2mqtt/internal/hueplus"
)

// subscriptions are the command topics below the prefix.
var subscriptions = []string{
	"channel/+/set",
	"channel/+/clear",
	"power/set",
	"restore",
	"discover",
}

// parseMessage turns a command topic and its payload into a queued command.
func parseMessage(prefix, topic string, payload []byte) (controller.Command, error) {
	rel := strings.TrimPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	if rel == topic {
		return controller.Command{}, fmt.Errorf("topic %s is outside %s", topic, prefix)
	}
	parts := strings.Split(rel, "/")

	switch {
	case len(parts) == 3 && parts[0] == "channel":
		ch, err := strconv.Atoi(parts[1])
		if err != nil {
			return controller.Command{}, fmt.Errorf("bad channel in topic %s: %w", topic, err)
		}
		switch parts[2] {
		case "set":
			req, err := parseEffect(ch, payload)
			if err != nil {
				return controller.Command{}, err
			}
			return controller.Command{Kind: controller.KindEffect, Effect: req}, nil
		case "clear":
			return controller.Command{Kind: controller.KindClear, Channel: ch}, nil
		}

	case rel == "power/set":
		switch strings.ToLower(strings.Trim(strings.TrimSpace(string(payload)), `"`)) {
		case "on", "1", "true":
			return controller.Command{Kind: controller.KindPower, On: true}, nil
		case "off", "0", "false":
			return controller.Command{Kind: controller.KindPower}, nil
		}
		return controller.Command{}, fmt.Errorf("power payload must be on or off, got %q", payload)

	case rel == "restore":
		return controller.Command{Kind: controller.KindRestore}, nil

	case rel == "discover":
		return controller.Command{Kind: controller.KindDiscover}, nil
	}
	return controller.Command{}, fmt.Errorf("unknown command topic %s", topic)
}

func parseEffect(channel int, payload []byte) (hueplus.EffectRequest, error) {
	var p EffectPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return hueplus.EffectRequest{}, fmt.Errorf("message could not be parsed (%s): %w", payload, err)
	}
	mode, err := hueplus.ParseMode(p.Mode)
	if err != nil {
		return hueplus.EffectRequest{}, err
	}

	colors := p.Colors
	if p.Color != "" {
		colors = append([]string{p.Color}, colors...)
	}

	var opts []hueplus.EffectOption
	if p.Speed != nil {
		opts = append(opts, hueplus.Speed(*p.Speed))
	}
	if p.Size != nil {
		opts = append(opts, hueplus.Size(*p.Size))
	}
	if p.Moving {
		opts = append(opts, hueplus.Moving())
	}
	if p.Backwards {
		opts = append(opts, hueplus.Backwards())
	}
	if p.Custom {
		opts = append(opts, hueplus.Custom())
	}

	req := hueplus.NewRequest(mode, channel, colors, opts...)
	if err := req.Validate(); err != nil {
		return hueplus.EffectRequest{}, err
	}
	return req, nil
}

func (c *ClientMQTT) topic(rel string) string {
	return strings.TrimSuffix(c.cfgClient.TopicPrefix, "/") + "/" + rel
}

// stateTopic is where the outcome of a command is published.
func stateTopic(st controller.State) string {
	if st.Power != "" {
		return "power/state"
	}
	return fmt.Sprintf("channel/%d/state", st.Channel)
}
