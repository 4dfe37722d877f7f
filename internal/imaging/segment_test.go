package imaging

import (
	"image"
	"image/color"
	"testing"
)

var (
	tailRange = HSVRange{Min: HSV{50, 75, 75}, Max: HSV{70, 255, 255}}
	green     = color.RGBA{0, 255, 0, 255}
)

func countOn(mask *image.Gray) int {
	n := 0
	for _, v := range mask.Pix {
		if v == MaskOn {
			n++
		}
	}
	return n
}

func TestClampRect(t *testing.T) {
	tests := []struct {
		name      string
		r         Rect
		want      Rect
		wantEmpty bool
	}{
		{"inside", Rect{2, 3, 10, 12}, Rect{2, 3, 10, 12}, false},
		{"overhangs left and top", Rect{-15, -5, 10, 10}, Rect{0, 0, 10, 10}, false},
		{"overhangs right and bottom", Rect{90, 40, 130, 75}, Rect{90, 40, 99, 49}, false},
		{"entirely left", Rect{-30, 0, -1, 10}, Rect{}, true},
		{"entirely below", Rect{0, 50, 10, 60}, Rect{}, true},
		{"inverted", Rect{10, 10, 5, 5}, Rect{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRect(tt.r, 100, 50)
			if tt.wantEmpty {
				if !got.Empty() {
					t.Errorf("ClampRect(%s): got %s, want empty", tt.r, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ClampRect(%s): got %s, want %s", tt.r, got, tt.want)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	img := createInMemoryImage(20, 20, color.Black)
	paintBlock(img, 5, 5, 7, 7, green)

	mask := Segment(img, Rect{0, 0, 19, 19}, tailRange)

	if mask.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("mask bounds: got %v, want 20x20", mask.Bounds())
	}
	if got := countOn(mask); got != 9 {
		t.Errorf("pixels on: got %d, want 9", got)
	}
	if mask.GrayAt(6, 6).Y != MaskOn {
		t.Error("block center should be on")
	}
	if mask.GrayAt(4, 4).Y != MaskOff {
		t.Error("background should be off")
	}
}

func TestSegment_OutsideRectAlwaysOff(t *testing.T) {
	img := createInMemoryImage(20, 20, green)

	mask := Segment(img, Rect{0, 0, 4, 4}, tailRange)

	if got := countOn(mask); got != 25 {
		t.Errorf("pixels on: got %d, want 25 (inclusive 5x5 rect)", got)
	}
	if mask.GrayAt(5, 5).Y != MaskOff {
		t.Error("pixel outside rectangle must be off even when in range")
	}
}

func TestSegment_ClampsRectangle(t *testing.T) {
	img := createInMemoryImage(20, 20, color.Black)
	paintBlock(img, 5, 5, 7, 7, green)

	mask := Segment(img, Rect{-10, -10, 6, 6}, tailRange)
	if got := countOn(mask); got != 4 {
		t.Errorf("pixels on: got %d, want 4", got)
	}

	mask = Segment(img, Rect{30, 30, 40, 40}, tailRange)
	if got := countOn(mask); got != 0 {
		t.Errorf("off-image rectangle: got %d pixels on, want 0", got)
	}
}

func TestSegment_NonZeroOrigin(t *testing.T) {
	base := createInMemoryImage(30, 30, color.Black)
	paintBlock(base, 15, 15, 16, 16, green)
	sub := base.SubImage(image.Rect(10, 10, 30, 30))

	mask := Segment(sub, Rect{0, 0, 19, 19}, tailRange)

	if mask.GrayAt(5, 5).Y != MaskOn || mask.GrayAt(6, 6).Y != MaskOn {
		t.Error("mask should be expressed relative to the image origin")
	}
	if got := countOn(mask); got != 4 {
		t.Errorf("pixels on: got %d, want 4", got)
	}
}

func TestRect_CenterAndContains(t *testing.T) {
	arena := Rect{215, 70, 788, 476}
	if c := arena.Center(); c != (Point{501, 273}) {
		t.Errorf("Center: got %+v, want {501 273}", c)
	}
	if !arena.Contains(Point{215, 476}) {
		t.Error("corner should be contained")
	}
	if arena.Contains(Point{214, 100}) {
		t.Error("point left of the arena should not be contained")
	}
}
