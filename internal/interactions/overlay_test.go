package interactions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/leorudin/paperwave/internal/api"
	"github.com/leorudin/paperwave/internal/store"
)

// memStore is an in-memory Store that also records whether the persisted
// snapshot already contained a given id at enqueue time.
type memStore struct {
	mu     sync.Mutex
	rec    store.InteractionRecord
	puts   int
	putErr error
}

func (m *memStore) GetInteractions() (store.InteractionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec, nil
}

func (m *memStore) PutInteractions(rec store.InteractionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.rec = rec
	m.puts++
	return nil
}

// captureQueue records enqueued feedback. Its snapshotAt closure, when set,
// reads the store at enqueue time to verify persist-before-submit ordering.
type captureQueue struct {
	got        []api.Feedback
	snapshotAt func() store.InteractionRecord
	snapshots  []store.InteractionRecord
}

func (c *captureQueue) Enqueue(fb api.Feedback) bool {
	c.got = append(c.got, fb)
	if c.snapshotAt != nil {
		c.snapshots = append(c.snapshots, c.snapshotAt())
	}
	return true
}

type fakeRemote struct {
	rec store.InteractionRecord
	err error
}

func (f *fakeRemote) GetUserInteractions(ctx context.Context) (store.InteractionRecord, error) {
	if f.err != nil {
		return store.DefaultInteractions(), f.err
	}
	return f.rec, nil
}

func TestToggleLikeIsItsOwnInverse(t *testing.T) {
	// Holds from any starting state, including ids liked by a prior session.
	starts := []store.InteractionRecord{
		{},
		{Liked: []string{"p1"}},
		{Liked: []string{"p0", "p1", "p2"}},
	}

	for _, start := range starts {
		st := &memStore{rec: start}
		o := New(st, &captureQueue{})
		o.Load(context.Background(), nil)

		before := o.IsLiked("p1")
		o.ToggleLike("p1")
		if o.IsLiked("p1") == before {
			t.Errorf("start %v: first toggle should flip membership", start.Liked)
		}
		o.ToggleLike("p1")
		if o.IsLiked("p1") != before {
			t.Errorf("start %v: double toggle should restore membership", start.Liked)
		}
	}
}

func TestToggleBookmarkPersists(t *testing.T) {
	st := &memStore{}
	o := New(st, &captureQueue{})
	o.Load(context.Background(), nil)

	o.ToggleBookmark("p3")
	if !o.IsBookmarked("p3") {
		t.Fatal("p3 should be bookmarked")
	}
	if len(st.rec.Bookmarked) != 1 || st.rec.Bookmarked[0] != "p3" {
		t.Errorf("persisted snapshot should contain p3, got %v", st.rec.Bookmarked)
	}

	o.ToggleBookmark("p3")
	if o.IsBookmarked("p3") {
		t.Fatal("second toggle should remove the bookmark")
	}
	if len(st.rec.Bookmarked) != 0 {
		t.Errorf("persisted snapshot should be empty, got %v", st.rec.Bookmarked)
	}
}

func TestPersistHappensBeforeEnqueue(t *testing.T) {
	st := &memStore{}
	q := &captureQueue{snapshotAt: func() store.InteractionRecord {
		rec, _ := st.GetInteractions()
		return rec
	}}
	o := New(st, q)
	o.Load(context.Background(), nil)

	o.ToggleLike("p5")

	if len(q.snapshots) != 1 {
		t.Fatalf("expected 1 enqueue, got %d", len(q.snapshots))
	}
	if len(q.snapshots[0].Liked) != 1 || q.snapshots[0].Liked[0] != "p5" {
		t.Error("store must already hold the mutation when the submit is enqueued")
	}
}

func TestToggleSubmitsFeedback(t *testing.T) {
	q := &captureQueue{}
	o := New(&memStore{}, q)
	o.Load(context.Background(), nil)

	o.ToggleLike("p1")
	o.ToggleLike("p1")
	o.ToggleBookmark("p2")

	want := []api.Feedback{
		{PaperID: "p1", Kind: api.KindLike, Value: true},
		{PaperID: "p1", Kind: api.KindLike, Value: false},
		{PaperID: "p2", Kind: api.KindBookmark, Value: true},
	}
	if len(q.got) != len(want) {
		t.Fatalf("expected %d submits, got %d", len(want), len(q.got))
	}
	for i, fb := range want {
		if q.got[i] != fb {
			t.Errorf("submit[%d] = %+v, want %+v", i, q.got[i], fb)
		}
	}
}

func TestAddNotInterestedIdempotent(t *testing.T) {
	st := &memStore{}
	q := &captureQueue{}
	o := New(st, q)
	o.Load(context.Background(), nil)

	if !o.AddNotInterested("p7") {
		t.Fatal("first add should change the set")
	}
	putsAfterFirst := st.puts
	if o.AddNotInterested("p7") {
		t.Error("second add should be a no-op")
	}
	if st.puts != putsAfterFirst {
		t.Error("no-op add must not persist again")
	}
	if len(q.got) != 1 {
		t.Fatalf("no-op add must not submit again, got %d submits", len(q.got))
	}
	fb := q.got[0]
	if fb.Kind != api.KindDislike || !fb.Value || !fb.Terminal {
		t.Errorf("hide should submit a terminal dislike, got %+v", fb)
	}
}

func TestLoadAuthedWritesThrough(t *testing.T) {
	st := &memStore{}
	remote := &fakeRemote{rec: store.InteractionRecord{
		Liked:  []string{"p1", "p2"},
		Counts: map[string]int{"likes": 7},
	}}
	o := New(st, &captureQueue{})
	o.Load(context.Background(), remote)

	if !o.IsLiked("p1") || !o.IsLiked("p2") {
		t.Error("remote sets should be adopted")
	}
	if len(st.rec.Liked) != 2 {
		t.Errorf("remote sets should be written through, got %v", st.rec.Liked)
	}
	if o.Snapshot().Counts["likes"] != 7 {
		t.Error("server counts should be kept verbatim")
	}
}

func TestLoadAuthedDegradesToLocal(t *testing.T) {
	st := &memStore{rec: store.InteractionRecord{Bookmarked: []string{"p9"}}}
	o := New(st, &captureQueue{})
	o.Load(context.Background(), &fakeRemote{err: errors.New("offline")})

	if !o.IsBookmarked("p9") {
		t.Error("remote failure should fall back to the local copy")
	}
}

func TestLoadAnonymousUsesLocalOnly(t *testing.T) {
	st := &memStore{rec: store.InteractionRecord{NotInterested: []string{"p4"}}}
	o := New(st, &captureQueue{})
	o.Load(context.Background(), nil)

	if !o.IsNotInterested("p4") {
		t.Error("anonymous load should read the local copy")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	o := New(&memStore{}, &captureQueue{})
	o.Load(context.Background(), nil)
	o.ToggleLike("p1")

	snap := o.Snapshot()
	snap.Liked["p2"] = true
	if o.IsLiked("p2") {
		t.Error("mutating a snapshot must not touch the overlay")
	}
}

func TestOrderedIDAccessors(t *testing.T) {
	o := New(&memStore{}, &captureQueue{})
	o.Load(context.Background(), nil)

	o.ToggleLike("p3")
	o.ToggleLike("p1")
	o.ToggleLike("p2")
	o.ToggleLike("p1") // unlike

	got := o.LikedIDs()
	want := []string{"p3", "p2"}
	if len(got) != len(want) {
		t.Fatalf("LikedIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LikedIDs() = %v, want %v", got, want)
		}
	}
}
