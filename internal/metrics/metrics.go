// Package metrics derives locomotion measures from a session's tag
// trajectories.
//
// Every half second of video the head displacement since the previous
// window is classified as walking, when the tail-base moved in roughly the
// same direction, or as head movement otherwise. Every frame also falls into
// exactly one detection coverage bucket.
package metrics

import (
	"github.com/ironsheep/tag-tracker/internal/imaging"
	"github.com/ironsheep/tag-tracker/internal/record"
)

// Params configures Compute.
type Params struct {
	FrameRate  int     // window length is FrameRate/2 frames
	NoiseFloor float64 // head displacements below this are ignored
	WalkAngle  float64 // head/tail heading difference below this is walking
}

// DefaultParams returns the parameters for a tag size and frame rate:
// noise floor tagSize/2 and a 45 degree walking threshold.
func DefaultParams(tagSize, frameRate int) Params {
	return Params{
		FrameRate:  frameRate,
		NoiseFloor: float64(tagSize / 2),
		WalkAngle:  45,
	}
}

// WindowFrames returns the window length in frames.
func (p Params) WindowFrames() int {
	return p.FrameRate / 2
}

// Class is the classification of one window.
type Class int

const (
	ClassNone         Class = iota // not a window frame, or head data missing
	ClassNoise                     // head moved less than the noise floor
	ClassWalking                   // head and tail moved together
	ClassHeadMovement              // head moved on its own
)

func (c Class) String() string {
	switch c {
	case ClassNoise:
		return "noise"
	case ClassWalking:
		return "walking"
	case ClassHeadMovement:
		return "head-movement"
	default:
		return "none"
	}
}

// Row is one output line.
type Row struct {
	Index           int             `json:"index"`
	Head            record.Position `json:"head"`
	Tail            record.Position `json:"tail"`
	WalkingDistance float64         `json:"walking_distance"`
	HeadMovement    float64         `json:"head_movement"`
	HeadToCenter    *int            `json:"head_to_center,omitempty"`
	Class           Class           `json:"-"`
}

// Coverage counts frames by which tags are resolved. The four counts always
// sum to the number of frames.
type Coverage struct {
	Both     int `json:"both"`
	HeadOnly int `json:"head_only"`
	TailOnly int `json:"tail_only"`
	None     int `json:"none"`
}

// Total returns the number of frames tallied.
func (c Coverage) Total() int {
	return c.Both + c.HeadOnly + c.TailOnly + c.None
}

func (c *Coverage) add(r record.FrameRecord) {
	h, t := r.Head.IsResolved(), r.Tail.IsResolved()
	switch {
	case h && t:
		c.Both++
	case h:
		c.HeadOnly++
	case t:
		c.TailOnly++
	default:
		c.None++
	}
}

// Report is the full result of Compute.
type Report struct {
	Rows            []Row    `json:"rows"`
	WalkingDistance float64  `json:"walking_distance"`
	HeadMovement    float64  `json:"head_movement"`
	Coverage        Coverage `json:"coverage"`
	Windows         int      `json:"windows"`
}

// Compute walks records in order (element 0 is frame 1) and produces one row
// per frame plus session totals.
//
// A frame i is a window end when i is a multiple of the window length and
// greater than it; it is compared with frame i-window. With a window length
// of zero no frame is a window end.
func Compute(records []record.FrameRecord, p Params) Report {
	window := p.WindowFrames()
	rep := Report{Rows: make([]Row, 0, len(records))}

	for i := 1; i <= len(records); i++ {
		cur := records[i-1]
		rep.Coverage.add(cur)

		row := Row{
			Index:        i,
			Head:         cur.Head,
			Tail:         cur.Tail,
			HeadToCenter: cur.HeadToCenter,
		}

		if window > 0 && i > window && i%window == 0 {
			rep.Windows++
			prev := records[i-window-1]
			class, dist := classify(cur, prev, p)
			row.Class = class
			switch class {
			case ClassWalking:
				row.WalkingDistance = dist
				rep.WalkingDistance += dist
			case ClassHeadMovement:
				row.HeadMovement = dist
				rep.HeadMovement += dist
			}
		}

		rep.Rows = append(rep.Rows, row)
	}

	return rep
}

// classify compares a window end with its start and returns the class and
// the head displacement.
func classify(cur, prev record.FrameRecord, p Params) (Class, float64) {
	if !cur.Head.IsResolved() || !prev.Head.IsResolved() {
		return ClassNone, 0
	}

	hl := imaging.Distance(prev.Head.Point(), cur.Head.Point())
	if hl < p.NoiseFloor {
		return ClassNoise, 0
	}

	if !cur.Tail.IsResolved() || !prev.Tail.IsResolved() {
		return ClassHeadMovement, hl
	}

	headAngle := imaging.Heading(prev.Head.Point(), cur.Head.Point())
	tailAngle := imaging.Heading(prev.Tail.Point(), cur.Tail.Point())
	if imaging.AngleDiff(headAngle, tailAngle) < p.WalkAngle {
		return ClassWalking, hl
	}
	return ClassHeadMovement, hl
}
