package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTag is returned when a tag name cannot be parsed.
var ErrUnknownTag = errors.New("unknown tag")

// Tag identifies one of the two tracked markers.
type Tag int

const (
	Head Tag = iota
	Tail
)

// Tags lists both tags in processing order.
var Tags = []Tag{Head, Tail}

func (t Tag) String() string {
	switch t {
	case Head:
		return "head"
	case Tail:
		return "tail"
	default:
		return fmt.Sprintf("tag(%d)", int(t))
	}
}

// ParseTag accepts "head", "tail", "tail-base" and "tailbase", case-insensitive.
func ParseTag(s string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "head", "h":
		return Head, nil
	case "tail", "tail-base", "tailbase", "tb", "t":
		return Tail, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTag, s)
}
