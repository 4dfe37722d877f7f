package record

import (
	"math"

	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// FrameRecord is the tracking result for one frame. HeadToCenter is set iff
// Head is resolved.
type FrameRecord struct {
	Head         Position `json:"head"`
	Tail         Position `json:"tail"`
	HeadToCenter *int     `json:"head_to_center,omitempty"`
}

// Get returns the position of tag.
func (r FrameRecord) Get(tag Tag) Position {
	if tag == Head {
		return r.Head
	}
	return r.Tail
}

// With returns a copy of r with tag set to p. Changing the head drops
// HeadToCenter; callers recompute it with WithCenterDistance.
func (r FrameRecord) With(tag Tag, p Position) FrameRecord {
	if tag == Head {
		r.Head = p
		r.HeadToCenter = nil
	} else {
		r.Tail = p
	}
	return r
}

// WithCenterDistance sets HeadToCenter from arena when the head is resolved
// and clears it otherwise.
func (r FrameRecord) WithCenterDistance(arena imaging.Rect) FrameRecord {
	r.HeadToCenter = nil
	if r.Head.IsResolved() {
		d := CenterDistance(r.Head, arena)
		r.HeadToCenter = &d
	}
	return r
}

// CenterDistance is the rounded distance from p to the arena center.
func CenterDistance(p Position, arena imaging.Rect) int {
	return int(math.Round(imaging.Distance(p.Point(), arena.Center())))
}

// Store holds exactly one FrameRecord per 1-based frame index.
type Store struct {
	records []FrameRecord
}

// NewStore returns a store of frameCount Unknown records.
func NewStore(frameCount int) *Store {
	if frameCount < 0 {
		frameCount = 0
	}
	return &Store{records: make([]FrameRecord, frameCount)}
}

// Len returns the frame count.
func (s *Store) Len() int { return len(s.records) }

// Valid reports whether index addresses a frame.
func (s *Store) Valid(index int) bool { return index >= 1 && index <= len(s.records) }

// Get returns the record at index, or the zero record when out of range.
func (s *Store) Get(index int) FrameRecord {
	if !s.Valid(index) {
		return FrameRecord{}
	}
	return s.records[index-1]
}

// Set replaces the record at index. Out-of-range indices are ignored.
func (s *Store) Set(index int, r FrameRecord) {
	if s.Valid(index) {
		s.records[index-1] = r
	}
}

// Records returns a copy of every record; element 0 is frame 1.
func (s *Store) Records() []FrameRecord {
	out := make([]FrameRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Reset returns every record to Unknown.
func (s *Store) Reset() {
	for i := range s.records {
		s.records[i] = FrameRecord{}
	}
}
