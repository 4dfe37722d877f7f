package imaging

import (
	"fmt"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV represents a color in the 8-bit HSV space used by tag color profiles.
//
//   - H: hue, 0-180 (degrees on the color wheel divided by two)
//   - S: saturation, 0-255 (0 = gray)
//   - V: value, 0-255 (0 = black)
type HSV struct {
	H int `json:"h" mapstructure:"h"`
	S int `json:"s" mapstructure:"s"`
	V int `json:"v" mapstructure:"v"`
}

func (c HSV) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.H, c.S, c.V)
}

// HSVRange is an inclusive lower/upper bound pair on every HSV channel.
type HSVRange struct {
	Min HSV `json:"min"`
	Max HSV `json:"max"`
}

// Contains reports whether c lies within the range on all three channels.
// Bounds are inclusive.
func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Min.H && c.H <= r.Max.H &&
		c.S >= r.Min.S && c.S <= r.Max.S &&
		c.V >= r.Min.V && c.V <= r.Max.V
}

// Validate checks channel limits and min <= max ordering.
func (r HSVRange) Validate() error {
	for _, c := range []HSV{r.Min, r.Max} {
		if c.H < 0 || c.H > 180 {
			return fmt.Errorf("hue %d outside 0-180", c.H)
		}
		if c.S < 0 || c.S > 255 || c.V < 0 || c.V > 255 {
			return fmt.Errorf("saturation/value %s outside 0-255", c)
		}
	}
	if r.Min.H > r.Max.H || r.Min.S > r.Max.S || r.Min.V > r.Max.V {
		return fmt.Errorf("range min %s exceeds max %s", r.Min, r.Max)
	}
	return nil
}

func (r HSVRange) String() string {
	return r.Min.String() + "-" + r.Max.String()
}

// ToHSV converts a pixel to 8-bit HSV.
//
// The color is reduced to 8-bit RGB first (16-bit channels are shifted right by
// 8), then converted with go-colorful, whose hue is 0-360 and saturation/value
// 0-1. Hue is halved and rounded; a hue that rounds to 180 is kept as 180, so
// deep reds just below 360 degrees land at the top of the red profile.
func ToHSV(c color.Color) HSV {
	r, g, b, _ := c.RGBA()
	return rgbToHSV(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func rgbToHSV(r, g, b uint8) HSV {
	h, s, v := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}.Hsv()

	return HSV{
		H: int(math.Round(h / 2)),
		S: int(math.Round(s * 255)),
		V: int(math.Round(v * 255)),
	}
}
