package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Color is a straight (non-premultiplied) RGB color with a float alpha.
// It satisfies image/color.Color and marshals to a CSS rgba() string.
type Color struct {
	R, G, B uint8
	A       float64
}

// RGB returns an opaque color
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBA implements image/color.Color
func (c Color) RGBA() (r, g, b, a uint32) {
	alpha := clampUnit(c.A)
	a = uint32(math.Round(alpha * 0xffff))
	r = uint32(math.Round(float64(uint32(c.R)*0x101) * alpha))
	g = uint32(math.Round(float64(uint32(c.G)*0x101) * alpha))
	b = uint32(math.Round(float64(uint32(c.B)*0x101) * alpha))
	return
}

// CSS formats the color as rgba(r,g,b,a)
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, formatAlpha(c.A))
}

func (c Color) String() string {
	return c.CSS()
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.CSS())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseColor(s)
	if !ok {
		return fmt.Errorf("invalid color %q", s)
	}
	*c = parsed
	return nil
}

// ParseColor accepts #rgb, #rrggbb, rgb()/rgba() and CSS color names
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Color{}, false
	}

	if strings.HasPrefix(s, "#") {
		if len(s) != 4 && len(s) != 7 {
			return Color{}, false
		}
		hex, err := colorful.Hex(s)
		if err != nil {
			return Color{}, false
		}
		return fromColorful(hex), true
	}

	if strings.HasPrefix(s, "rgb") {
		return parseFunctional(s)
	}

	if named, ok := colornames.Map[s]; ok {
		return Color{R: named.R, G: named.G, B: named.B, A: float64(named.A) / 0xff}, true
	}
	return Color{}, false
}

// MustParseColor is ParseColor for package-level literals
func MustParseColor(s string) Color {
	c, ok := ParseColor(s)
	if !ok {
		panic(fmt.Sprintf("render: invalid color %q", s))
	}
	return c
}

// Hue returns the fully saturated mid-lightness color at hue degrees
func Hue(degrees float64) Color {
	return fromColorful(colorful.Hsl(math.Mod(degrees, 360), 1, 0.5))
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b, A: 1}
}

func parseFunctional(s string) (Color, bool) {
	var r, g, b int
	a := 1.0
	var n int
	var err error
	if strings.HasPrefix(s, "rgba(") {
		n, err = fmt.Sscanf(s, "rgba(%d,%d,%d,%g)", &r, &g, &b, &a)
		if err != nil || n != 4 {
			return Color{}, false
		}
	} else {
		n, err = fmt.Sscanf(s, "rgb(%d,%d,%d)", &r, &g, &b)
		if err != nil || n != 3 {
			return Color{}, false
		}
	}
	for _, v := range []int{r, g, b} {
		if v < 0 || v > 255 {
			return Color{}, false
		}
	}
	if a < 0 || a > 1 {
		return Color{}, false
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b), A: a}, true
}

func formatAlpha(a float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", clampUnit(a)), "0"), ".")
	if s == "" {
		return "0"
	}
	return s
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
