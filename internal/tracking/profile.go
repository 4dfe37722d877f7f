package tracking

import (
	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/imaging"
	"github.com/ironsheep/tag-tracker/internal/record"
)

// ColorProfile is a named HSV range.
type ColorProfile struct {
	Name  string           `json:"name"`
	Range imaging.HSVRange `json:"range"`
}

// ProfileTable picks the color profile for a tag. It is built once from
// configuration and never modified.
type ProfileTable struct {
	red          ColorProfile
	blue         ColorProfile
	tail         ColorProfile
	blueSessions map[string]struct{}
}

// NewProfileTable builds the table from a validated configuration.
func NewProfileTable(cfg *config.Config) *ProfileTable {
	t := &ProfileTable{
		red:          ColorProfile{Name: config.ProfileRed, Range: cfg.Profile(config.ProfileRed)},
		blue:         ColorProfile{Name: config.ProfileBlue, Range: cfg.Profile(config.ProfileBlue)},
		tail:         ColorProfile{Name: config.ProfileTail, Range: cfg.Profile(config.ProfileTail)},
		blueSessions: make(map[string]struct{}, len(cfg.BlueSessions)),
	}
	for _, id := range cfg.BlueSessions {
		t.blueSessions[id] = struct{}{}
	}
	return t
}

// For returns the profile used for tag in the given session.
func (t *ProfileTable) For(tag record.Tag, sessionID string) ColorProfile {
	if tag == record.Tail {
		return t.tail
	}
	if _, ok := t.blueSessions[sessionID]; ok {
		return t.blue
	}
	return t.red
}
