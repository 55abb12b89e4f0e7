// Package collection builds the pinned snapshots ("my liked papers") that
// temporarily substitute for the live feed list.
package collection

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leorudin/paperwave/internal/logging"
	"github.com/leorudin/paperwave/internal/store"
)

// maxBackfillFetches limits parallel paper lookups while hydrating.
const maxBackfillFetches = 5

// Kind names which interaction set a snapshot was pinned from.
type Kind string

const (
	Liked      Kind = "liked"
	Bookmarked Kind = "bookmarked"
)

// PaperStore is the slice of the local store the viewer uses.
type PaperStore interface {
	GetPapers(ids []string) ([]store.Paper, error)
	PutPapers(papers []store.Paper) (int, error)
}

// Backfill resolves papers missing from the local store. *api.Client
// satisfies it. Nil hydrates from the store alone.
type Backfill interface {
	FetchPaper(ctx context.Context, id string) (store.Paper, error)
}

// Viewer hydrates pinned snapshots from the store, backfilling remotely.
type Viewer struct {
	store    PaperStore
	backfill Backfill
}

func New(st PaperStore, backfill Backfill) *Viewer {
	return &Viewer{store: st, backfill: backfill}
}

// Snapshot is a fixed, read-only sub-list. It never mutates after Pin:
// un-liking a paper while browsing its collection keeps the card visible
// until the collection is pinned again.
type Snapshot struct {
	kind   Kind
	papers []store.Paper
	ids    []string
}

func (s *Snapshot) Kind() Kind { return s.kind }
func (s *Snapshot) Len() int   { return len(s.papers) }

// Papers returns the pinned papers in pin order.
func (s *Snapshot) Papers() []store.Paper {
	out := make([]store.Paper, len(s.papers))
	copy(out, s.papers)
	return out
}

// IDs returns the pinned ids in pin order.
func (s *Snapshot) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Pin builds the snapshot for ids, keeping their order. Papers come from the
// local store; misses are backfilled remotely with bounded fan-out and cached
// for next time. Ids that still cannot be resolved are dropped rather than
// failing the pin: a collection with gaps beats no collection.
func (v *Viewer) Pin(ctx context.Context, kind Kind, ids []string) (*Snapshot, error) {
	cached, err := v.store.GetPapers(ids)
	if err != nil {
		return nil, fmt.Errorf("collection: hydrate %s: %w", kind, err)
	}

	byID := make(map[string]store.Paper, len(ids))
	for _, p := range cached {
		byID[p.ID] = p
	}

	var missing []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 && v.backfill != nil {
		fetched := v.fetchMissing(ctx, missing)
		for _, p := range fetched {
			byID[p.ID] = p
		}
		if len(fetched) > 0 {
			if _, err := v.store.PutPapers(fetched); err != nil {
				logging.Warn("failed to cache backfilled papers", "error", err)
			}
		}
	}

	snap := &Snapshot{kind: kind}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			logging.Debug("paper unresolvable, dropped from collection", "kind", kind, "paper", id)
			continue
		}
		snap.papers = append(snap.papers, p)
		snap.ids = append(snap.ids, id)
	}
	return snap, nil
}

// fetchMissing resolves ids remotely with bounded concurrency. Individual
// failures are logged and skipped, never failing the group.
func (v *Viewer) fetchMissing(ctx context.Context, ids []string) []store.Paper {
	var (
		mu      sync.Mutex
		fetched []store.Paper
	)

	var g errgroup.Group
	g.SetLimit(maxBackfillFetches)
	for _, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			p, err := v.backfill.FetchPaper(ctx, id)
			if err != nil {
				logging.Warn("backfill fetch failed", "paper", id, "error", err)
				return nil
			}
			mu.Lock()
			fetched = append(fetched, p)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return fetched
}
