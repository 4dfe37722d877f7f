package imaging

import (
	"math"
)

// Point represents a 2D pixel coordinate
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Euclidean distance between two points in pixels
func Distance(a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Heading returns the direction of the vector from a to b in degrees, in
// (-180, 180]. 0 points right and 90 points down, following image axes.
func Heading(a, b Point) float64 {
	return math.Atan2(float64(b.Y-a.Y), float64(b.X-a.X)) * 180 / math.Pi
}

// AngleDiff returns the smallest absolute difference between two headings in
// degrees, normalized into [0, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// DistanceResult contains measurement information between two points
type DistanceResult struct {
	DistancePixels float64 `json:"distance_pixels"`
	DeltaX         int     `json:"delta_x"`
	DeltaY         int     `json:"delta_y"`
	AngleDegrees   float64 `json:"angle_degrees"`
}

// MeasureDistance calculates the distance and heading from one point to another
func MeasureDistance(from, to Point) DistanceResult {
	return DistanceResult{
		DistancePixels: math.Round(Distance(from, to)*100) / 100,
		DeltaX:         to.X - from.X,
		DeltaY:         to.Y - from.Y,
		AngleDegrees:   math.Round(Heading(from, to)*10) / 10,
	}
}
