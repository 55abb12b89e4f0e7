package api

import (
	"time"

	"github.com/leorudin/paperwave/internal/store"
)

// Feedback kinds accepted by the backend.
const (
	KindLike     = "like"
	KindBookmark = "bookmark"
	KindDislike  = "dislike"
)

// FeedQuery identifies one page request against the feed endpoint.
type FeedQuery struct {
	Offset    int
	Limit     int
	Source    string
	SubSource string
	Query     string // search phrase, empty for the plain stream
}

// FeedPage is one fetched page in server rank order.
type FeedPage struct {
	Papers []store.Paper
	Total  int
}

// Feedback is one user signal submitted to the backend.
type Feedback struct {
	PaperID  string `json:"paperId"`
	Kind     string `json:"kind"` // "like" | "bookmark" | "dislike"
	Value    bool   `json:"newValue"`
	Terminal bool   `json:"terminal,omitempty"`
}

// NarrationClip describes the generated narration for one paper.
type NarrationClip struct {
	PaperID     string  `json:"paperId"`
	AudioURL    string  `json:"audioUrl"`
	DurationSec float64 `json:"durationSec"`
}

// paperPayload is the wire shape of a paper.
type paperPayload struct {
	ID            string   `json:"id"`
	SourceID      string   `json:"sourceId"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	Authors       []string `json:"authors"`
	Categories    []string `json:"categories"`
	PublishedAt   string   `json:"publishedAt"` // RFC 3339
	Translation   string   `json:"translation"`
	Insights      string   `json:"insights"`
	Visualization string   `json:"visualization"`
}

// feedPayload is the wire shape of a feed page.
type feedPayload struct {
	Papers []paperPayload `json:"papers"`
	Total  int            `json:"total"`
}

// interactionsPayload is the wire shape of the account interaction sets.
type interactionsPayload struct {
	Liked         []string       `json:"liked"`
	Bookmarked    []string       `json:"bookmarked"`
	NotInterested []string       `json:"notInterested"`
	Counts        map[string]int `json:"counts"`
}

// toPaper converts a wire paper into the domain type, stamping fetch time.
// An unparseable publish date is left zero; display fields are opaque here.
func (p paperPayload) toPaper(fetched time.Time) store.Paper {
	published, _ := time.Parse(time.RFC3339, p.PublishedAt)
	return store.Paper{
		ID:            p.ID,
		SourceID:      p.SourceID,
		Title:         p.Title,
		Abstract:      p.Abstract,
		Authors:       p.Authors,
		Categories:    p.Categories,
		PublishedAt:   published,
		FetchedAt:     fetched,
		Translation:   p.Translation,
		Insights:      p.Insights,
		Visualization: p.Visualization,
	}
}

func (ip interactionsPayload) toRecord() store.InteractionRecord {
	return store.InteractionRecord{
		SchemaVersion: store.CurrentSchemaVersion,
		Liked:         ip.Liked,
		Bookmarked:    ip.Bookmarked,
		NotInterested: ip.NotInterested,
		Counts:        ip.Counts,
	}
}
