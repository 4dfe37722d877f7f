package tracking

import (
	"image"
	"sort"

	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/detection"
	"github.com/ironsheep/tag-tracker/internal/imaging"
	"github.com/ironsheep/tag-tracker/internal/record"
)

// Source explains where a committed position came from.
type Source string

const (
	SourceOverride Source = "override" // user-set position kept as is
	SourceDetected Source = "detected" // median of detected components
	SourceCarried  Source = "carried"  // nothing detected; previous position copied
	SourceRejected Source = "rejected" // candidate jumped too far from the previous position
	SourceMissing  Source = "missing"  // nothing detected and nothing to carry
)

// LocatorOptions holds the detection parameters.
type LocatorOptions struct {
	TagSize            int
	SearchMultiplier   float64
	FallbackLeftMargin int
	ContourThreshold   int
	OutlierMultiplier  float64
	Cleanup            imaging.CleanupOptions
}

// OptionsFromConfig extracts locator options from cfg.
func OptionsFromConfig(cfg *config.Config) LocatorOptions {
	return LocatorOptions{
		TagSize:            cfg.TagSize,
		SearchMultiplier:   cfg.SearchMultiplier,
		FallbackLeftMargin: cfg.FallbackLeftMargin,
		ContourThreshold:   cfg.ContourThreshold,
		OutlierMultiplier:  cfg.OutlierMultiplier,
		Cleanup:            cfg.Cleanup,
	}
}

// Detection is the outcome of locating one tag in one frame.
type Detection struct {
	Tag        record.Tag            `json:"-"`
	Position   record.Position       `json:"position"`
	Source     Source                `json:"source"`
	Failed     bool                  `json:"failed"` // no component found in the search window
	Search     imaging.Rect          `json:"search"`
	Profile    string                `json:"profile,omitempty"`
	Candidates int                   `json:"candidates"`
	Raw        *imaging.Point        `json:"raw,omitempty"` // median before outlier rejection
	Union      detection.BoundingBox `json:"union"`
}

// Locator runs the per-tag detection state machine.
type Locator struct {
	opts     LocatorOptions
	profiles *ProfileTable
}

// NewLocator returns a locator using the given options and profile table.
func NewLocator(opts LocatorOptions, profiles *ProfileTable) *Locator {
	return &Locator{opts: opts, profiles: profiles}
}

// Prepare applies the configured frame preprocessing. Call it once per frame
// and pass the result to Locate for both tags.
func (l *Locator) Prepare(img image.Image) image.Image {
	return imaging.PrepareFrame(img, l.opts.Cleanup)
}

// Locate evaluates tag in img. current is the frame's stored position and
// previous the stored position in the frame before it (Unknown for the
// first frame).
func (l *Locator) Locate(img image.Image, tag record.Tag, current, previous record.Position, sessionID string) Detection {
	d := Detection{Tag: tag}

	if current.IsOverride() {
		d.Position = current
		d.Source = SourceOverride
		return d
	}

	bounds := img.Bounds()
	d.Search = l.SearchRect(previous, bounds.Dx(), bounds.Dy())

	profile := l.profiles.For(tag, sessionID)
	d.Profile = profile.Name

	mask := imaging.Segment(img, d.Search, profile.Range)
	mask = imaging.CleanupMask(mask, l.opts.Cleanup)
	wrect, rects := detection.Aggregate(mask, l.opts.ContourThreshold)
	d.Union = wrect
	d.Candidates = len(rects)

	var candidate record.Position
	switch {
	case len(rects) > 0:
		p := medianCenter(rects)
		d.Raw = &p
		candidate = record.Resolved(p.X, p.Y)
		d.Source = SourceDetected
	case previous.IsResolved():
		candidate = previous
		d.Source = SourceCarried
		d.Failed = true
	default:
		candidate = record.Unresolved()
		d.Source = SourceMissing
		d.Failed = true
	}

	if previous.IsResolved() && candidate.IsResolved() {
		limit := l.opts.OutlierMultiplier * float64(l.opts.TagSize)
		if imaging.Distance(previous.Point(), candidate.Point()) > limit {
			candidate = record.Unresolved()
			d.Source = SourceRejected
		}
	}

	d.Position = candidate
	return d
}

// SearchRect returns the search window for a frame of the given size.
func (l *Locator) SearchRect(previous record.Position, width, height int) imaging.Rect {
	if !previous.IsResolved() {
		return imaging.Rect{X1: l.opts.FallbackLeftMargin, Y1: 0, X2: width, Y2: height}
	}
	r := l.opts.SearchMultiplier * float64(l.opts.TagSize)
	px, py := float64(previous.X), float64(previous.Y)
	return imaging.Rect{
		X1: int(px - r),
		Y1: int(py - r),
		X2: int(px + r),
		Y2: int(py + r),
	}
}

// medianCenter takes the median of box centers on each axis independently,
// so the result need not be the center of any one box.
func medianCenter(rects []detection.BoundingBox) imaging.Point {
	xs := make([]int, len(rects))
	ys := make([]int, len(rects))
	for i, r := range rects {
		xs[i], ys[i] = r.Center()
	}
	return imaging.Point{X: median(xs), Y: median(ys)}
}

// median of a non-empty slice; an even count averages the middle pair and
// truncates toward zero. vals is sorted in place.
func median(vals []int) int {
	sort.Ints(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return int(float64(vals[n/2-1]+vals[n/2]) / 2)
}
