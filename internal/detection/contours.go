package detection

import (
	"image"
)

// BoundingBox is an axis-aligned box in pixel coordinates given as origin and
// size. Width and Height count pixels, so a single pixel is 1x1.
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Center returns the box center using integer arithmetic: (X + W/2, Y + H/2).
func (b BoundingBox) Center() (int, int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Empty reports whether the box covers no pixels.
func (b BoundingBox) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// union returns the smallest box containing both a and b. An empty a is
// treated as absent.
func union(a, b BoundingBox) BoundingBox {
	if a.Empty() {
		return b
	}
	x1, y1 := min(a.X, b.X), min(a.Y, b.Y)
	x2, y2 := max(a.X+a.W, b.X+b.W), max(a.Y+a.H, b.Y+b.H)
	return BoundingBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// DefaultContourThreshold is the historical size filter. The smallest possible
// box is 1x1 (w+h == 2), so at this value no component is dropped; raise it to
// discard specks.
const DefaultContourThreshold = 1

// Aggregate finds the connected components of set pixels in a binary mask and
// returns their bounding boxes.
//
// Parameters:
//   - mask: Binary mask; any non-zero pixel counts as set.
//   - threshold: Components whose box satisfies w + h <= threshold are
//     discarded as noise.
//
// Returns:
//   - wrect: Union of every surviving box; the zero box when none survive.
//   - rects: Surviving boxes in raster order of each component's first pixel.
//
// # Algorithm
//
//  1. Scan the mask in raster order
//  2. Flood-fill every unvisited set pixel with 8-connectivity to collect one
//     maximal component, tracking its min/max X and Y
//  3. Convert extents to a box with W = maxX-minX+1, H = maxY-minY+1
//  4. Drop boxes at or below the size threshold, accumulate the rest
//
// Box coordinates are relative to mask.Bounds().Min. An empty result is not
// an error: callers treat it as a missed detection.
func Aggregate(mask *image.Gray, threshold int) (BoundingBox, []BoundingBox) {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var wrect BoundingBox
	rects := make([]BoundingBox, 0)

	visited := make([]bool, width*height)
	set := func(x, y int) bool {
		return mask.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y != 0
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !set(x, y) {
				continue
			}
			box := fillComponent(set, visited, x, y, width, height)
			if box.W+box.H <= threshold {
				continue
			}
			rects = append(rects, box)
			wrect = union(wrect, box)
		}
	}

	return wrect, rects
}

// fillComponent performs an iterative 8-connected flood fill from a starting
// pixel and returns the bounding box of the component it visited.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on large
// blobs.
func fillComponent(set func(x, y int) bool, visited []bool, startX, startY, width, height int) BoundingBox {
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				if visited[ny*width+nx] || !set(nx, ny) {
					continue
				}
				visited[ny*width+nx] = true
				stack = append(stack, image.Point{X: nx, Y: ny})
			}
		}
	}

	return BoundingBox{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}
