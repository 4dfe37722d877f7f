package tracking

import (
	"errors"

	"github.com/ironsheep/tag-tracker/internal/record"
)

var (
	// ErrNoFrames is returned by Open for a directory without frame images.
	ErrNoFrames = errors.New("no frame images in directory")
	// ErrNoSession is returned by callers that need an open session.
	ErrNoSession = errors.New("no session is open")
	// ErrSessionOpen is returned when opening while a session is active.
	ErrSessionOpen = errors.New("a session is already open")
	// ErrUnknownTag is returned for unrecognized tag names.
	ErrUnknownTag = record.ErrUnknownTag
	// ErrNotResolved is returned by operations that need a tag position.
	ErrNotResolved = errors.New("tag position is not resolved")
)
