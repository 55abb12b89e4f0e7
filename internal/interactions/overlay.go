// Package interactions owns the per-user feedback overlay: the liked,
// bookmarked, and not-interested sets, plus server-computed aggregate counts.
// It is the single source of truth for "is this paper liked/bookmarked/hidden".
// Mutations are optimistic: memory first, then a synchronous write-through to
// the local store, then a fire-and-forget submit on the dispatch queue. There
// is no rollback path; a failed submit leaves local state standing until the
// next full Load overwrites it.
package interactions

import (
	"context"
	"sync"

	"github.com/leorudin/paperwave/internal/api"
	"github.com/leorudin/paperwave/internal/logging"
	"github.com/leorudin/paperwave/internal/store"
)

// Store is the slice of the local store the overlay needs.
type Store interface {
	GetInteractions() (store.InteractionRecord, error)
	PutInteractions(store.InteractionRecord) error
}

// Remote fetches the account's interaction sets when authenticated.
type Remote interface {
	GetUserInteractions(ctx context.Context) (store.InteractionRecord, error)
}

// Enqueuer hands feedback submits to the dispatch queue.
type Enqueuer interface {
	Enqueue(fb api.Feedback) bool
}

// Snapshot is a copied view of the three sets, safe to share with the feed
// filter and the UI.
type Snapshot struct {
	Liked         map[string]bool
	Bookmarked    map[string]bool
	NotInterested map[string]bool
	Counts        map[string]int
}

// Overlay holds the three sets. Thread-safe; reads return copies.
type Overlay struct {
	mu            sync.RWMutex
	liked         *idSet
	bookmarked    *idSet
	notInterested *idSet
	counts        map[string]int

	store Store
	queue Enqueuer
}

// New creates an empty overlay. Call Load before first use.
func New(st Store, queue Enqueuer) *Overlay {
	return &Overlay{
		liked:         newIDSet(nil),
		bookmarked:    newIDSet(nil),
		notInterested: newIDSet(nil),
		counts:        map[string]int{},
		store:         st,
		queue:         queue,
	}
}

// Load populates the sets at session start. With a remote (authenticated),
// the account copy wins and is written through to the local store; remote
// failure degrades to the local copy. Without a remote, the local store is
// the only source. Failures are logged, never returned: first run and broken
// backends both yield working empty sets.
func (o *Overlay) Load(ctx context.Context, remote Remote) {
	if remote != nil {
		rec, err := remote.GetUserInteractions(ctx)
		if err == nil {
			o.adopt(rec)
			if err := o.store.PutInteractions(rec); err != nil {
				logging.Warn("interactions write-through failed", "error", err)
			}
			return
		}
		logging.Warn("remote interactions unavailable, using local copy", "error", err)
	}

	rec, err := o.store.GetInteractions()
	if err != nil {
		logging.Warn("local interactions unavailable, starting empty", "error", err)
		rec = store.DefaultInteractions()
	}
	o.adopt(rec)
}

// adopt replaces the in-memory sets with rec.
func (o *Overlay) adopt(rec store.InteractionRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.liked = newIDSet(rec.Liked)
	o.bookmarked = newIDSet(rec.Bookmarked)
	o.notInterested = newIDSet(rec.NotInterested)
	o.counts = map[string]int{}
	for k, v := range rec.Counts {
		o.counts[k] = v
	}
}

// ToggleLike flips liked membership for id and returns the new membership.
func (o *Overlay) ToggleLike(id string) bool {
	o.mu.Lock()
	nowLiked := o.liked.toggle(id)
	o.persistLocked()
	o.mu.Unlock()

	o.submit(api.Feedback{PaperID: id, Kind: api.KindLike, Value: nowLiked})
	return nowLiked
}

// ToggleBookmark flips bookmarked membership for id and returns the new
// membership.
func (o *Overlay) ToggleBookmark(id string) bool {
	o.mu.Lock()
	nowBookmarked := o.bookmarked.toggle(id)
	o.persistLocked()
	o.mu.Unlock()

	o.submit(api.Feedback{PaperID: id, Kind: api.KindBookmark, Value: nowBookmarked})
	return nowBookmarked
}

// AddNotInterested inserts id into the not-interested set. Idempotent: when
// id is already present nothing is persisted or submitted. Returns true when
// the set changed. Removal only happens via a full Load resync.
func (o *Overlay) AddNotInterested(id string) bool {
	o.mu.Lock()
	added := o.notInterested.add(id)
	if added {
		o.persistLocked()
	}
	o.mu.Unlock()

	if !added {
		return false
	}
	o.submit(api.Feedback{PaperID: id, Kind: api.KindDislike, Value: true, Terminal: true})
	return true
}

// IsLiked reports liked membership.
func (o *Overlay) IsLiked(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.liked.has(id)
}

// IsBookmarked reports bookmarked membership.
func (o *Overlay) IsBookmarked(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.bookmarked.has(id)
}

// IsNotInterested reports not-interested membership.
func (o *Overlay) IsNotInterested(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.notInterested.has(id)
}

// Snapshot returns a copied view of all three sets.
func (o *Overlay) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	counts := make(map[string]int, len(o.counts))
	for k, v := range o.counts {
		counts[k] = v
	}
	return Snapshot{
		Liked:         o.liked.asMap(),
		Bookmarked:    o.bookmarked.asMap(),
		NotInterested: o.notInterested.asMap(),
		Counts:        counts,
	}
}

// LikedIDs returns liked ids in the order they were liked.
func (o *Overlay) LikedIDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.liked.ids()
}

// BookmarkedIDs returns bookmarked ids in the order they were bookmarked.
func (o *Overlay) BookmarkedIDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.bookmarked.ids()
}

// persistLocked writes the full three-set snapshot through to the store.
// Caller must hold o.mu. Store failures are logged; in-memory state stands.
func (o *Overlay) persistLocked() {
	rec := store.InteractionRecord{
		Liked:         o.liked.ids(),
		Bookmarked:    o.bookmarked.ids(),
		NotInterested: o.notInterested.ids(),
		Counts:        o.counts,
	}
	if err := o.store.PutInteractions(rec); err != nil {
		logging.Warn("interactions persist failed", "error", err)
	}
}

// submit enqueues one feedback call. A nil queue (maintenance CLI) skips the
// network side entirely.
func (o *Overlay) submit(fb api.Feedback) {
	if o.queue == nil {
		return
	}
	o.queue.Enqueue(fb)
}
