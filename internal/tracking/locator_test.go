package tracking

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/tag-tracker/internal/detection"
	"github.com/ironsheep/tag-tracker/internal/imaging"
	"github.com/ironsheep/tag-tracker/internal/record"
)

const redSession = "999_Sh_1"

func newTestLocator(mutate func(o *LocatorOptions)) *Locator {
	cfg := testConfig()
	opts := OptionsFromConfig(cfg)
	if mutate != nil {
		mutate(&opts)
	}
	return NewLocator(opts, NewProfileTable(cfg))
}

func TestProfileTable(t *testing.T) {
	table := NewProfileTable(testConfig())

	assert.Equal(t, "blue", table.For(record.Head, "287_NE_2").Name)
	assert.Equal(t, "red", table.For(record.Head, redSession).Name)
	assert.Equal(t, "tail", table.For(record.Tail, "287_NE_2").Name)
	assert.Equal(t, "tail", table.For(record.Tail, redSession).Name)
}

func TestSearchRect(t *testing.T) {
	l := newTestLocator(nil)

	assert.Equal(t, imaging.Rect{X1: 85, Y1: 45, X2: 115, Y2: 75},
		l.SearchRect(record.Resolved(100, 60), frameW, frameH))
	assert.Equal(t, imaging.Rect{X1: 50, Y1: 0, X2: frameW, Y2: frameH},
		l.SearchRect(record.Unknown(), frameW, frameH))
	assert.Equal(t, imaging.Rect{X1: 50, Y1: 0, X2: frameW, Y2: frameH},
		l.SearchRect(record.Deleted(), frameW, frameH))
}

func TestLocate_OverridePrecedence(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 100, Y: 60}, red)
	l := newTestLocator(nil)

	for _, p := range []record.Position{record.Resolved(5, 5), record.Deleted()} {
		d := l.Locate(img, record.Head, p, record.Resolved(100, 60), redSession)
		assert.Equal(t, p, d.Position)
		assert.Equal(t, SourceOverride, d.Source)
		assert.False(t, d.Failed)
		assert.Zero(t, d.Candidates, "detection must not run")

		again := l.Locate(img, record.Head, d.Position, record.Resolved(100, 60), redSession)
		assert.Equal(t, p, again.Position)
	}
}

func TestLocate_FirstFrame(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 100, Y: 60}, red)
	paintTag(img, image.Point{X: 120, Y: 110}, green)
	l := newTestLocator(nil)

	head := l.Locate(img, record.Head, record.Unknown(), record.Unknown(), redSession)
	assert.Equal(t, record.Resolved(100, 60), head.Position)
	assert.Equal(t, SourceDetected, head.Source)
	assert.Equal(t, 1, head.Candidates)
	assert.Equal(t, "red", head.Profile)
	assert.Equal(t, detection.BoundingBox{X: 98, Y: 58, W: 5, H: 5}, head.Union)

	tail := l.Locate(img, record.Tail, record.Unknown(), record.Unknown(), redSession)
	assert.Equal(t, record.Resolved(120, 110), tail.Position)
}

func TestLocate_FallbackSkipsLeftMargin(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 20, Y: 60}, red)
	l := newTestLocator(nil)

	d := l.Locate(img, record.Head, record.Unknown(), record.Unknown(), redSession)
	assert.Equal(t, record.Unresolved(), d.Position)
	assert.Equal(t, SourceMissing, d.Source)
	assert.True(t, d.Failed)
}

func TestLocate_SearchWindowFollowsPrevious(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 105, Y: 62}, red)
	paintTag(img, image.Point{X: 170, Y: 20}, red) // decoy outside the window
	l := newTestLocator(nil)

	d := l.Locate(img, record.Head, record.Unknown(), record.Resolved(100, 60), redSession)
	assert.Equal(t, record.Resolved(105, 62), d.Position)
	assert.Equal(t, 1, d.Candidates)
	assert.Equal(t, imaging.Rect{X1: 85, Y1: 45, X2: 115, Y2: 75}, d.Search)
}

func TestLocate_CarryForward(t *testing.T) {
	img := blankFrame(frameW, frameH)
	l := newTestLocator(nil)

	d := l.Locate(img, record.Head, record.Unknown(), record.Resolved(100, 60), redSession)
	assert.Equal(t, record.Resolved(100, 60), d.Position)
	assert.Equal(t, SourceCarried, d.Source)
	assert.True(t, d.Failed)
}

func TestLocate_UnresolvedCurrentIsRedetected(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 100, Y: 60}, red)
	l := newTestLocator(nil)

	d := l.Locate(img, record.Head, record.Unresolved(), record.Unknown(), redSession)
	assert.Equal(t, record.Resolved(100, 60), d.Position)
}

func TestLocate_OutlierRejected(t *testing.T) {
	img := blankFrame(250, 250)
	paintTag(img, image.Point{X: 200, Y: 200}, red)
	// widen the window so the far candidate is seen at all
	l := newTestLocator(func(o *LocatorOptions) { o.SearchMultiplier = 12 })

	d := l.Locate(img, record.Head, record.Unknown(), record.Resolved(100, 100), redSession)
	assert.Equal(t, record.Unresolved(), d.Position)
	assert.Equal(t, SourceRejected, d.Source)
	require.NotNil(t, d.Raw)
	assert.Equal(t, imaging.Point{X: 200, Y: 200}, *d.Raw)
	assert.False(t, d.Failed, "rejection is not a detection failure")
}

func TestLocate_WithinOutlierLimit(t *testing.T) {
	img := blankFrame(250, 250)
	paintTag(img, image.Point{X: 120, Y: 120}, red) // distance 28.3 <= 30
	l := newTestLocator(func(o *LocatorOptions) { o.SearchMultiplier = 12 })

	d := l.Locate(img, record.Head, record.Unknown(), record.Resolved(100, 100), redSession)
	assert.Equal(t, record.Resolved(120, 120), d.Position)
}

func TestLocate_PerAxisMedian(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 60, Y: 50}, red)
	paintTag(img, image.Point{X: 100, Y: 10}, red)
	paintTag(img, image.Point{X: 80, Y: 90}, red)
	l := newTestLocator(nil)

	d := l.Locate(img, record.Head, record.Unknown(), record.Unknown(), redSession)
	assert.Equal(t, 3, d.Candidates)
	// median x of {60,100,80} and median y of {50,10,90}; no blob sits there
	assert.Equal(t, record.Resolved(80, 50), d.Position)
}

func TestLocate_EvenMedianTruncates(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 60, Y: 40}, red)
	paintTag(img, image.Point{X: 71, Y: 51}, red)
	l := newTestLocator(nil)

	d := l.Locate(img, record.Head, record.Unknown(), record.Unknown(), redSession)
	assert.Equal(t, record.Resolved(65, 45), d.Position)
}

func TestLocate_BlueSession(t *testing.T) {
	img := blankFrame(frameW, frameH)
	paintTag(img, image.Point{X: 100, Y: 60}, blue)
	l := newTestLocator(nil)

	d := l.Locate(img, record.Head, record.Unknown(), record.Unknown(), "287_NE_2")
	assert.Equal(t, record.Resolved(100, 60), d.Position)
	assert.Equal(t, "blue", d.Profile)

	d = l.Locate(img, record.Head, record.Unknown(), record.Unknown(), redSession)
	assert.Equal(t, record.Unresolved(), d.Position, "blue tag is invisible to the red profile")
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []int
		want int
	}{
		{[]int{5}, 5},
		{[]int{3, 1, 2}, 2},
		{[]int{1, 2}, 1},
		{[]int{4, 1, 3, 2}, 2},
		{[]int{10, 20}, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, median(append([]int(nil), tt.in...)), "%v", tt.in)
	}
}
