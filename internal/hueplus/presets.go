package hueplus

import "context"

// EffectOption adjusts a preset's defaults.
type EffectOption func(*EffectRequest)

// Speed sets the animation speed, 1 (slowest) to 5.
func Speed(v int) EffectOption {
	return func(r *EffectRequest) { r.Speed = v }
}

// Size sets the group size, 1 to 4.
func Size(v int) EffectOption {
	return func(r *EffectRequest) { r.Size = v }
}

// Backwards reverses the direction of travel.
func Backwards() EffectOption {
	return func(r *EffectRequest) { r.Backwards = true }
}

// Moving makes alternating colors travel.
func Moving() EffectOption {
	return func(r *EffectRequest) { r.Moving = true }
}

// Custom drives the effect from 40 per-slot colors.
func Custom() EffectOption {
	return func(r *EffectRequest) { r.Custom = true }
}

type knob uint8

const (
	knobSpeed knob = 1 << iota
	knobSize
	knobMoving
	knobBackwards
	knobCustom
)

// NewRequest applies opts on top of the preset defaults of mode. Options the
// mode does not use are reset.
func NewRequest(mode Mode, channel int, colors []string, opts ...EffectOption) EffectRequest {
	req := EffectRequest{
		Mode:    mode,
		Channel: channel,
		Speed:   defaultSpeed,
		Size:    defaultSize,
		Colors:  colors,
	}
	for _, opt := range opts {
		opt(&req)
	}

	knobs := modeKnobs[mode]
	if knobs&knobSpeed == 0 {
		req.Speed = defaultSpeed
	}
	if knobs&knobSize == 0 {
		req.Size = defaultSize
	}
	if knobs&knobMoving == 0 {
		req.Moving = false
	}
	if knobs&knobBackwards == 0 {
		req.Backwards = false
	}
	switch mode {
	case ModeSpectrum:
		req.Colors = []string{"ffffff"}
	case ModeWave:
		req.Custom = true
	default:
		if knobs&knobCustom == 0 {
			req.Custom = false
		}
	}
	return req
}

var modeKnobs = map[Mode]knob{
	ModeFixed:           knobCustom,
	ModeFading:          knobSpeed,
	ModeSpectrum:        knobSpeed | knobBackwards,
	ModeMarquee:         knobSpeed | knobSize | knobBackwards,
	ModeCoveringMarquee: knobSpeed | knobBackwards,
	ModeAlternating:     knobSpeed | knobSize | knobMoving | knobBackwards,
	ModePulse:           knobSpeed,
	ModeBreathing:       knobSpeed | knobCustom,
	ModeCandle:          0,
	ModeWings:           knobSpeed,
	ModeWave:            knobSpeed | knobCustom,
}

func (s *Session) preset(ctx context.Context, mode Mode, channel int, colors []string, opts []EffectOption) error {
	return s.Apply(ctx, NewRequest(mode, channel, colors, opts...))
}

// Fixed shows a static color. Accepts Custom.
func (s *Session) Fixed(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeFixed, channel, colors, opts)
}

// Fading cycles through the colors. Accepts Speed.
func (s *Session) Fading(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeFading, channel, colors, opts)
}

// Spectrum runs the device-generated rainbow. Accepts Speed and Backwards.
func (s *Session) Spectrum(ctx context.Context, channel int, opts ...EffectOption) error {
	return s.preset(ctx, ModeSpectrum, channel, nil, opts)
}

// Marquee accepts Speed, Size and Backwards.
func (s *Session) Marquee(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeMarquee, channel, colors, opts)
}

// CoveringMarquee accepts Speed and Backwards.
func (s *Session) CoveringMarquee(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeCoveringMarquee, channel, colors, opts)
}

// Alternating takes exactly two colors. Accepts Speed, Size, Moving and Backwards.
func (s *Session) Alternating(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeAlternating, channel, colors, opts)
}

func (s *Session) Pulse(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModePulse, channel, colors, opts)
}

// Breathing accepts Speed and Custom.
func (s *Session) Breathing(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeBreathing, channel, colors, opts)
}

func (s *Session) Candle(ctx context.Context, channel int, colors []string) error {
	return s.preset(ctx, ModeCandle, channel, colors, nil)
}

func (s *Session) Wings(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeWings, channel, colors, opts)
}

// Wave is always a custom preset: colors must hold 40 entries.
func (s *Session) Wave(ctx context.Context, channel int, colors []string, opts ...EffectOption) error {
	return s.preset(ctx, ModeWave, channel, colors, opts)
}
