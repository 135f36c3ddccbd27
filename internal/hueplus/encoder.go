package hueplus

// Validate checks the request against the rules of its mode without touching
// the topology. Speed and Size must already be 1-based.
func (r EffectRequest) Validate() error {
	_, err := r.colors()
	return err
}

// colors validates the request and converts its colors.
func (r EffectRequest) colors() ([]Color, error) {
	if !r.Mode.Valid() {
		return nil, invalid("mode", r.Mode, "unknown effect mode")
	}
	if len(r.Colors) == 0 {
		return nil, invalid("color", r.Colors, "at least one color is required")
	}
	if !r.Custom && len(r.Colors) > maxFrameColors {
		return nil, invalid("color", len(r.Colors), "max limit for color length is %d for a noncustom mode", maxFrameColors)
	}
	if !r.Custom && r.Mode == ModeWave {
		return nil, invalid("mode", r.Mode, "wave mode is only available for custom presets")
	}
	if r.Channel < 0 || r.Channel > 2 {
		return nil, invalid("channel", r.Channel, "channel must be an integer between 0 and 2")
	}
	if (r.Mode == ModeMarquee || r.Mode == ModeCoveringMarquee) && r.Channel == 0 {
		return nil, invalid("channel", r.Channel, "channel can't be 0 for covering marquee/marquee modes")
	}
	// Channel 0 is the aggregate of both headers. Aer RGB fans do not accept it.
	if r.Channel == 0 {
		return nil, invalid("channel", r.Channel, "channel 0 is disabled for compatibility with Aer RGB fans")
	}
	if r.Speed < 1 || r.Speed > maxSpeed {
		return nil, invalid("speed", r.Speed, "speed must be an integer between 1 and %d", maxSpeed)
	}
	if r.Size < 1 || r.Size > maxSize {
		return nil, invalid("size", r.Size, "size must be an integer between 1 and %d", maxSize)
	}
	if r.Mode == ModeAlternating && !r.Custom && len(r.Colors) != 2 {
		return nil, invalid("color", len(r.Colors), "color must be an array of 2 colors for alternating mode")
	}
	if r.Custom && len(r.Colors) != customColors {
		return nil, invalid("color", len(r.Colors), "color must be an array of %d colors when using a custom preset", customColors)
	}
	if r.Custom && r.Mode != ModeFixed && r.Mode != ModeBreathing && r.Mode != ModeWave {
		return nil, invalid("custom", r.Mode, "custom preset is only allowed for fixed, breathing, and wave modes")
	}

	out := make([]Color, len(r.Colors))
	for i, s := range r.Colors {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// directional modes honour the backwards flag.
func (m Mode) directional() bool {
	switch m {
	case ModeSpectrum, ModeMarquee, ModeCoveringMarquee, ModeAlternating:
		return true
	}
	return false
}

// param is the fifth header byte. speed and size are zero-based here.
func (m Mode) param(speed, size int) int {
	switch m {
	case ModeFixed:
		return 0x02
	case ModeCandle:
		return 0x00
	case ModeMarquee, ModeAlternating:
		return speed + size*8
	default:
		return speed
	}
}

// EncodeFrame builds the 0x4b packet for one frame of the request. frame
// selects the color of a multi-color sequence and shifts the address byte so
// successive frames address successive groups.
func EncodeFrame(req EffectRequest, topo Topology, frame int) ([]byte, error) {
	colors, err := req.colors()
	if err != nil {
		return nil, err
	}
	if frame < 0 || frame >= req.frames() {
		return nil, invalid("frame", frame, "request has %d frame(s)", req.frames())
	}
	ch, _ := topo.Channel(req.Channel)

	ledCount := int(ch.Count)
	if ledCount > 0 {
		ledCount--
	}
	if req.Custom {
		ledCount++
	}
	speed, size := req.Speed-1, req.Size-1

	addr := ledCount
	if req.Mode == ModeAlternating && req.Moving {
		addr += movingOffset
	}
	if req.Backwards && req.Mode.directional() {
		addr += backwardsOffset
	}
	addr += frame * frameOffset
	if addr > 0xff {
		return nil, invalid("frame", frame, "address byte 0x%x overflows", addr)
	}

	packet := make([]byte, 0, PacketSize)
	packet = append(packet, cmdEffect, byte(req.Channel), byte(req.Mode), byte(addr), byte(req.Mode.param(speed, size)))

	filled := 0
	switch {
	case req.Mode == ModeSpectrum:
		for ; filled < ch.activeSlots(); filled++ {
			packet = append(packet, spectrumColor[:]...)
		}
	case req.Custom:
		for ; filled < Slots; filled++ {
			packet = append(packet, colors[filled][:]...)
		}
	default:
		c := colors[0]
		if len(colors) > 1 {
			c = colors[frame]
		}
		for ; filled < ch.activeSlots(); filled++ {
			packet = append(packet, c[:]...)
		}
	}
	for ; filled < Slots; filled++ {
		packet = append(packet, 0x00, 0x00, 0x00)
	}

	if len(packet) != PacketSize {
		return nil, &MalformedPacketError{Length: len(packet)}
	}
	return packet, nil
}

// clearPacket darkens every slot of a channel.
func clearPacket(channel int) []byte {
	packet := make([]byte, PacketSize)
	packet[0] = cmdEffect
	packet[1] = byte(channel)
	return packet
}
