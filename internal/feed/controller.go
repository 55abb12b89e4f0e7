// Package feed owns the ordered, paginated paper list for the active session
// tuple (source, sub-source, search phrase). It is a state machine, not an
// I/O layer: the UI asks BeginLoad for a page request, runs the fetch through
// the API client off-loop, and hands the outcome back to ApplyResult. At most
// one load is in flight per state; overlapping requests are rejected as
// silent no-ops, which is also what keeps pages appending in issue order.
package feed

import (
	"sync"

	"github.com/leorudin/paperwave/internal/logging"
	"github.com/leorudin/paperwave/internal/store"
)

// Session identifies one independent paginated feed. Changing any element
// starts a brand-new list.
type Session struct {
	Source       string
	SubSource    string
	SearchPhrase string
}

// Request is a single-page fetch ticket issued by BeginLoad. Generation pins
// it to the session tuple it was issued for; a resolved request whose
// generation no longer matches is discarded. Hidden is the not-interested
// snapshot captured at issue time, applied to the returned page client-side.
type Request struct {
	Session    Session
	Generation uint64
	Offset     int
	Limit      int
	Hidden     map[string]bool
}

// Controller holds the feed state. Thread-safe; reads return copies.
type Controller struct {
	mu sync.RWMutex

	session    Session
	generation uint64

	items     []store.Paper
	index     map[string]bool // ids currently in items
	cursor    int             // next-fetch offset, never rewinds within a session
	total     int             // server-reported upper bound
	exhausted bool

	loading bool
	lastErr error

	initialBatch int
	pageSize     int
	lookahead    int
}

// NewController creates an empty controller. initialBatch is requested at
// cursor 0 (large, to resume mid-scroll in one round trip); pageSize covers
// every later page; lookahead is the prefetch threshold.
func NewController(initialBatch, pageSize, lookahead int) *Controller {
	if pageSize <= 0 {
		pageSize = 10
	}
	if initialBatch < pageSize {
		initialBatch = pageSize
	}
	if lookahead <= 0 {
		lookahead = 3
	}
	return &Controller{
		index:        map[string]bool{},
		initialBatch: initialBatch,
		pageSize:     pageSize,
		lookahead:    lookahead,
	}
}

// SetSession switches the active tuple. A genuine change resets items,
// cursor, and exhaustion, and bumps the generation so in-flight loads for
// the old tuple resolve into nothing. Returns false when s is already the
// active tuple (no reset).
func (c *Controller) SetSession(s Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s == c.session && c.generation > 0 {
		return false
	}

	c.session = s
	c.generation++
	c.items = nil
	c.index = map[string]bool{}
	c.cursor = 0
	c.total = 0
	c.exhausted = false
	c.loading = false
	c.lastErr = nil

	logging.Debug("feed session changed",
		"source", s.Source,
		"sub_source", s.SubSource,
		"query", s.SearchPhrase,
		"generation", c.generation)
	return true
}

// Session returns the active tuple.
func (c *Controller) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// BeginLoad issues a fetch ticket for the next page. Returns false (and no
// ticket) when a load is already in flight or the feed is exhausted; those
// are silent no-ops, not errors. hidden is the caller's current
// not-interested snapshot.
func (c *Controller) BeginLoad(hidden map[string]bool) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading || c.exhausted || c.generation == 0 {
		return Request{}, false
	}

	limit := c.pageSize
	if c.cursor == 0 {
		limit = c.initialBatch
	}

	c.loading = true
	return Request{
		Session:    c.session,
		Generation: c.generation,
		Offset:     c.cursor,
		Limit:      limit,
		Hidden:     hidden,
	}, true
}

// ApplyResult is the only mutator of items/cursor. Stale results (generation
// mismatch after a session switch) are discarded without touching anything,
// including the loading flag, which by then belongs to the new session.
// A failed load leaves items and cursor unchanged and records the error for
// the UI's manual retry affordance; there is no automatic retry.
func (c *Controller) ApplyResult(req Request, papers []store.Paper, total int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.Generation != c.generation {
		logging.Debug("discarding stale feed page",
			"source", req.Session.Source,
			"generation", req.Generation,
			"current", c.generation)
		return
	}

	c.loading = false

	if err != nil {
		c.lastErr = err
		logging.Warn("feed load failed",
			"source", req.Session.Source,
			"offset", req.Offset,
			"error", err)
		return
	}
	c.lastErr = nil

	fetched := len(papers)
	if req.Offset == 0 {
		c.items = nil
		c.index = map[string]bool{}
	}
	for _, p := range papers {
		if req.Hidden[p.ID] {
			continue
		}
		if c.index[p.ID] {
			continue
		}
		c.index[p.ID] = true
		c.items = append(c.items, p)
	}

	// Cursor advances by what the server sent, not by what survived the
	// hidden filter, so hidden items never stall pagination.
	c.cursor = req.Offset + fetched
	c.total = total
	c.exhausted = c.cursor >= total || fetched == 0
}

// Items returns a copy of the visible ordered list.
func (c *Controller) Items() []store.Paper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]store.Paper, len(c.items))
	copy(out, c.items)
	return out
}

// IDs returns the visible ids in order.
func (c *Controller) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.items))
	for i, p := range c.items {
		out[i] = p.ID
	}
	return out
}

// Loading reports whether a load is in flight.
func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// HasMore reports whether the server may have further pages.
func (c *Controller) HasMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.exhausted
}

// Total returns the server-reported result bound for the session.
func (c *Controller) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Err returns the last load failure, cleared by the next successful load.
func (c *Controller) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// NeedsMore reports whether the consumer at viewIdx is close enough to the
// end that the next page should be requested: fewer than lookahead items
// remain ahead, the feed is not exhausted, and no load is in flight.
func (c *Controller) NeedsMore(viewIdx int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.loading || c.exhausted || len(c.items) == 0 {
		return false
	}
	remaining := len(c.items) - 1 - viewIdx
	return remaining < c.lookahead
}

// Hide removes one id from the visible list immediately (the user hid a
// card). Pages still in flight are filtered by their own Hidden snapshot;
// this handles what is already on screen. Returns true when the list changed.
func (c *Controller) Hide(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.index[id] {
		return false
	}
	delete(c.index, id)
	for i, p := range c.items {
		if p.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	return true
}
