// Package record holds the per-frame tag data shared by the tracker, the
// metrics computation and the report and checkpoint stores.
package record

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// Kind is the state of a tag position in one frame.
type Kind int

const (
	// KindUnknown means the tag has never been observed in this frame.
	KindUnknown Kind = iota
	// KindDeleted means a user explicitly cleared the tag.
	KindDeleted
	// KindUnresolved means detection ran and failed or was rejected.
	KindUnresolved
	// KindResolved means the tag has pixel coordinates.
	KindResolved
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindDeleted:    "deleted",
	KindUnresolved: "unresolved",
	KindResolved:   "resolved",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Position is a tagged variant. X and Y are meaningful only when Kind is
// KindResolved; the constructors keep them zero otherwise.
type Position struct {
	Kind Kind
	X    int
	Y    int
}

// Resolved returns a position at (x, y).
func Resolved(x, y int) Position { return Position{Kind: KindResolved, X: x, Y: y} }

// Unknown returns the never-observed position.
func Unknown() Position { return Position{Kind: KindUnknown} }

// Deleted returns the user-cleared position.
func Deleted() Position { return Position{Kind: KindDeleted} }

// Unresolved returns the failed-detection position.
func Unresolved() Position { return Position{Kind: KindUnresolved} }

// IsResolved reports whether the position has coordinates.
func (p Position) IsResolved() bool { return p.Kind == KindResolved }

// IsOverride reports whether automatic detection must leave the position alone.
func (p Position) IsOverride() bool {
	return p.Kind == KindResolved || p.Kind == KindDeleted
}

// Point returns the coordinates. Only valid for resolved positions.
func (p Position) Point() imaging.Point { return imaging.Point{X: p.X, Y: p.Y} }

func (p Position) String() string {
	if p.IsResolved() {
		return fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return p.Kind.String()
}

type positionJSON struct {
	State string `json:"state"`
	X     *int   `json:"x,omitempty"`
	Y     *int   `json:"y,omitempty"`
}

// MarshalJSON emits {"state":"resolved","x":..,"y":..} or {"state":"deleted"}.
func (p Position) MarshalJSON() ([]byte, error) {
	out := positionJSON{State: p.Kind.String()}
	if p.IsResolved() {
		x, y := p.X, p.Y
		out.X, out.Y = &x, &y
	}
	return json.Marshal(out)
}
