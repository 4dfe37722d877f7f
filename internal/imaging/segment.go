package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// Rect is an axis-aligned rectangle given by two inclusive corners.
//
// Unlike image.Rectangle, both (X1,Y1) and (X2,Y2) are inside the rectangle.
// Search windows and the arena are expressed this way.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.X1 > r.X2 || r.Y1 > r.Y2
}

// Center returns the integer center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X1 + (r.X2-r.X1)/2, Y: r.Y1 + (r.Y2-r.Y1)/2}
}

// Contains reports whether p lies inside the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// ClampRect constrains r to the pixel grid [0,width) x [0,height).
//
// Corners are clamped independently. A rectangle that lies entirely off the
// image, or is already Empty, comes back Empty.
func ClampRect(r Rect, width, height int) Rect {
	// Entirely beyond one edge would otherwise collapse to a line on that edge.
	if r.Empty() || r.X2 < 0 || r.Y2 < 0 || r.X1 >= width || r.Y1 >= height {
		return Rect{X1: 0, Y1: 0, X2: -1, Y2: -1}
	}
	return Rect{
		X1: clamp(r.X1, 0, width-1),
		Y1: clamp(r.Y1, 0, height-1),
		X2: clamp(r.X2, 0, width-1),
		Y2: clamp(r.Y2, 0, height-1),
	}
}

// Mask values.
const (
	MaskOff uint8 = 0
	MaskOn  uint8 = 255
)

// Segment builds a binary mask of the pixels inside rect whose HSV value lies
// within hsvRange.
//
// Parameters:
//   - img: Source frame.
//   - rect: Search rectangle in frame coordinates (0-based, relative to
//     img.Bounds().Min). It is clamped to the frame before use.
//   - hsvRange: Inclusive HSV bounds.
//
// Returns a grayscale mask with the same width and height as img and origin
// (0,0). Pixels are 255 when they are inside the clamped rectangle and in
// range, 0 otherwise. Pixels outside the rectangle are always 0.
func Segment(img image.Image, rect Rect, hsvRange HSVRange) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	mask := image.NewGray(image.Rect(0, 0, width, height))
	r := ClampRect(rect, width, height)
	if r.Empty() {
		return mask
	}

	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			if hsvRange.Contains(ToHSV(img.At(x+bounds.Min.X, y+bounds.Min.Y))) {
				mask.SetGray(x, y, color.Gray{Y: MaskOn})
			}
		}
	}
	return mask
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
