package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/disintegration/imaging"
)

// Overlay colors. Head and tail-base tags keep the hues reviewers already
// know from the recorded review videos.
var (
	HeadColor      = color.RGBA{255, 150, 0, 255}
	TailColor      = color.RGBA{255, 255, 255, 255}
	ArenaColor     = color.RGBA{255, 255, 255, 255}
	FailureColor   = color.RGBA{255, 0, 0, 255}
	CenterRayColor = color.RGBA{0, 0, 0, 255}
	labelFG        = color.RGBA{0, 255, 0, 255}
	labelBG        = color.RGBA{0, 0, 0, 180}
)

// Annotation describes what to draw on a frame preview.
type Annotation struct {
	Head         *Point // nil when the head tag has no resolved position
	Tail         *Point // nil when the tail-base tag has no resolved position
	TagSize      int
	Arena        Rect
	Failed       bool // detection failed for a tag; arena outline turns red
	HeadToCenter *int
	FrameIndex   int
}

// PreviewResult contains an annotated frame encoded as base64 PNG
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview renders tag markers, the arena outline, the head-to-center ray and
// the frame index onto a copy of img, then scales it.
func Preview(img image.Image, a Annotation, scale float64) (*PreviewResult, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	arenaColor := ArenaColor
	if a.Failed {
		arenaColor = FailureColor
	}
	drawRectOutline(result, a.Arena, 2, arenaColor)

	if a.Head != nil {
		center := a.Arena.Center()
		drawLine(result, *a.Head, center, CenterRayColor)
		if a.HeadToCenter != nil {
			drawLabel(result, center.X, center.Y+10, strconv.Itoa(*a.HeadToCenter), labelFG, labelBG)
		}
		fillSquare(result, *a.Head, a.TagSize, HeadColor)
	}
	if a.Tail != nil {
		fillSquare(result, *a.Tail, a.TagSize, TailColor)
	}
	if a.FrameIndex > 0 {
		drawLabel(result, 10, 10, strconv.Itoa(a.FrameIndex), labelFG, labelBG)
	}

	var out image.Image = result
	if scale > 0 && scale != 1.0 {
		w := int(float64(result.Bounds().Dx()) * scale)
		h := int(float64(result.Bounds().Dy()) * scale)
		if w > 0 && h > 0 {
			out = imaging.Resize(result, w, h, imaging.Linear)
		}
	}

	encoded, err := encodePNG(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// fillSquare paints a size x size square centered on p, clipped to the image.
func fillSquare(img *image.RGBA, p Point, size int, c color.RGBA) {
	half := size / 2
	r := image.Rect(p.X-half, p.Y-half, p.X+half+1, p.Y+half+1).Intersect(img.Bounds())
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// drawRectOutline draws the border of an inclusive rectangle with the given thickness.
func drawRectOutline(img *image.RGBA, r Rect, thickness int, c color.RGBA) {
	bounds := img.Bounds()
	for t := 0; t < thickness; t++ {
		for x := r.X1 - t; x <= r.X2+t; x++ {
			setClipped(img, bounds, x, r.Y1-t, c)
			setClipped(img, bounds, x, r.Y2+t, c)
		}
		for y := r.Y1 - t; y <= r.Y2+t; y++ {
			setClipped(img, bounds, r.X1-t, y, c)
			setClipped(img, bounds, r.X2+t, y, c)
		}
	}
}

// drawLine draws a 1-pixel line between two points using Bresenham's algorithm.
func drawLine(img *image.RGBA, from, to Point, c color.RGBA) {
	bounds := img.Bounds()
	x0, y0, x1, y1 := from.X, from.Y, to.X, to.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		setClipped(img, bounds, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func setClipped(img *image.RGBA, bounds image.Rectangle, x, y int, c color.RGBA) {
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		img.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawLabel draws digits on a filled background with its top-left at (x, y).
// Frame indices and distances are all it ever prints.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	// Simple 3x5 pixel font for digits and minus sign
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'-': {"000", "000", "111", "000", "000"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	// Draw background
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, bounds, x+dx, y+dy, bg)
		}
	}

	// Draw text
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, bounds, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
