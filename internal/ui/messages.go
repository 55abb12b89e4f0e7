package ui

import (
	"github.com/leorudin/paperwave/internal/collection"
	"github.com/leorudin/paperwave/internal/feed"
	"github.com/leorudin/paperwave/internal/playback"
	"github.com/leorudin/paperwave/internal/store"
)

// InteractionsReady signals that the overlay finished hydrating from the
// local store (and reconciling with the server where possible). The first
// feed load waits for it so the hidden-id filter is complete.
type InteractionsReady struct{}

// FeedLoaded carries one resolved page fetch back into the loop. Req is the
// ticket BeginLoad issued; the controller uses it to discard stale pages.
type FeedLoaded struct {
	Req    feed.Request
	Papers []store.Paper
	Total  int
	Err    error
}

// CollectionPinned carries a hydrated liked/bookmarked snapshot.
type CollectionPinned struct {
	Snap *collection.Snapshot
	Err  error
}

// EngineEvent wraps one audio engine event for the synchronizer.
type EngineEvent struct {
	Ev playback.Event
}

// ScrollTick drives the spring animation between frames.
type ScrollTick struct{}
