package tracking

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/tag-tracker/internal/config"
)

const (
	frameW = 200
	frameH = 150
)

var (
	red   = color.RGBA{255, 0, 20, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	green = color.RGBA{0, 255, 0, 255}
	gray  = color.RGBA{128, 128, 128, 255}
)

// spot describes the tags painted in one frame; nil means absent.
type spot struct {
	head *image.Point
	tail *image.Point
}

func pt(x, y int) *image.Point { return &image.Point{X: x, Y: y} }

// blankFrame returns a gray frame.
func blankFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, gray)
		}
	}
	return img
}

// paintTag paints a 5x5 block whose bounding-box center is p.
func paintTag(img *image.RGBA, p image.Point, c color.RGBA) {
	for y := p.Y - 2; y <= p.Y+2; y++ {
		for x := p.X - 2; x <= p.X+2; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// testConfig uses PNG frames so colors survive encoding, and an arena
// covering the whole frame (center 100,75).
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.FrameGlob = "*.png"
	cfg.FrameNameFormat = "f%06d.png"
	cfg.Arena = []int{0, 0, frameW, frameH}
	return cfg
}

// writeSession writes one PNG per spot into <tmp>/<name> and returns the
// directory.
func writeSession(t *testing.T, name string, headColor color.RGBA, frames []spot) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for i, f := range frames {
		img := blankFrame(frameW, frameH)
		if f.head != nil {
			paintTag(img, *f.head, headColor)
		}
		if f.tail != nil {
			paintTag(img, *f.tail, green)
		}
		out, err := os.Create(filepath.Join(dir, fmt.Sprintf("f%06d.png", i+1)))
		require.NoError(t, err)
		require.NoError(t, png.Encode(out, img))
		require.NoError(t, out.Close())
	}
	return dir
}

// walking returns n frames with both tags moving 3 px right per frame.
func walking(n int) []spot {
	frames := make([]spot, n)
	for i := range frames {
		frames[i] = spot{head: pt(60+3*i, 60), tail: pt(60+3*i, 100)}
	}
	return frames
}
