package store

import "time"

// CurrentSchemaVersion is stamped into singleton records on write. Reads
// tolerate older versions by decoding over defaults.
const CurrentSchemaVersion = 2

// Paper is one research paper as it flows through the feed. Display fields
// and the AI-derived blobs (Translation, Insights, Visualization) are opaque
// to this layer; ID is the only key used anywhere.
type Paper struct {
	ID            string
	SourceID      string // external identifier (e.g. arXiv id) for deep links
	Title         string
	Abstract      string
	Authors       []string
	Categories    []string
	PublishedAt   time.Time
	FetchedAt     time.Time
	Translation   string
	Insights      string
	Visualization string
}

// Preferences is the persisted singleton of user settings.
type Preferences struct {
	SchemaVersion int     `json:"schemaVersion"`
	InstallID     string  `json:"installId,omitempty"`
	AutoPlay      bool    `json:"autoPlay"`
	PlaybackRate  float64 `json:"playbackRate,omitempty"`
	LastSource    string  `json:"lastSource,omitempty"`
	LastSubSource string  `json:"lastSubSource,omitempty"`
}

// DefaultPreferences returns the values used on first run and as the decode
// base for records written by older versions.
func DefaultPreferences() Preferences {
	return Preferences{
		SchemaVersion: CurrentSchemaVersion,
		AutoPlay:      true,
		PlaybackRate:  1.0,
	}
}

// InteractionRecord is the persisted singleton of the three interaction sets
// plus server-computed aggregate counts (stored verbatim, never recomputed).
type InteractionRecord struct {
	SchemaVersion int            `json:"schemaVersion"`
	Liked         []string       `json:"liked"`
	Bookmarked    []string       `json:"bookmarked"`
	NotInterested []string       `json:"notInterested"`
	Counts        map[string]int `json:"counts,omitempty"`
}

// DefaultInteractions returns the empty record used on first run.
func DefaultInteractions() InteractionRecord {
	return InteractionRecord{SchemaVersion: CurrentSchemaVersion}
}
