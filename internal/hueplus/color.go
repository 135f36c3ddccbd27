package hueplus

import (
	"encoding/hex"
	"strings"
)

// Color is one slot in the order the controller expects: green, red, blue.
type Color [3]byte

// Placeholder color written into every active slot in spectrum mode.
var spectrumColor = Color{0x00, 0x00, 0xff}

// ParseColor converts "#rrggbb", "rrggbb" or the short "#rgb" form.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, invalid("color", s, "use a hex code (ex. #FFFFFF)")
	}
	rgb, err := hex.DecodeString(h)
	if err != nil {
		return Color{}, invalid("color", s, "use a hex code (ex. #FFFFFF)")
	}
	return Color{rgb[1], rgb[0], rgb[2]}, nil
}

// RGB returns the color back in red, green, blue order.
func (c Color) RGB() (r, g, b byte) {
	return c[1], c[0], c[2]
}
