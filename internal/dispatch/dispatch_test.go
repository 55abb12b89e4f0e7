package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leorudin/paperwave/internal/api"
)

// recordingSubmitter collects submitted feedback. If gate is non-nil, every
// call blocks until the gate closes.
type recordingSubmitter struct {
	mu       sync.Mutex
	got      []api.Feedback
	err      error
	gate     chan struct{}
	received chan struct{} // signaled once per call before blocking on gate
}

func (r *recordingSubmitter) SubmitFeedback(ctx context.Context, fb api.Feedback) error {
	if r.received != nil {
		r.received <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	r.got = append(r.got, fb)
	r.mu.Unlock()
	return r.err
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestEnqueueSubmits(t *testing.T) {
	sub := &recordingSubmitter{}
	q := NewQueue(sub, 2, 16)

	for _, id := range []string{"p1", "p2", "p3"} {
		if !q.Enqueue(api.Feedback{PaperID: id, Kind: api.KindLike, Value: true}) {
			t.Fatalf("Enqueue(%s) rejected", id)
		}
	}
	q.Close()

	if sub.count() != 3 {
		t.Errorf("expected 3 submits, got %d", sub.count())
	}
	if got := q.Stats().Submitted; got != 3 {
		t.Errorf("Stats().Submitted = %d, want 3", got)
	}
}

func TestSubmitFailureIsSwallowed(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("backend down")}
	q := NewQueue(sub, 1, 4)

	q.Enqueue(api.Feedback{PaperID: "p1", Kind: api.KindBookmark, Value: true})
	q.Enqueue(api.Feedback{PaperID: "p2", Kind: api.KindBookmark, Value: false})
	q.Close()

	// Both jobs ran; failures are counted, never propagated or retried.
	if sub.count() != 2 {
		t.Errorf("expected 2 attempts, got %d", sub.count())
	}
	stats := q.Stats()
	if stats.Failed != 2 || stats.Submitted != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	q := NewQueue(&recordingSubmitter{}, 1, 4)
	q.Close()

	if q.Enqueue(api.Feedback{PaperID: "p1", Kind: api.KindLike}) {
		t.Error("Enqueue after Close should return false")
	}
}

func TestFullQueueDrops(t *testing.T) {
	sub := &recordingSubmitter{
		gate:     make(chan struct{}),
		received: make(chan struct{}, 8),
	}
	q := NewQueue(sub, 1, 1)

	// First job occupies the single worker.
	if !q.Enqueue(api.Feedback{PaperID: "p1", Kind: api.KindLike}) {
		t.Fatal("first Enqueue rejected")
	}
	select {
	case <-sub.received:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first job")
	}

	// Second fills the buffer, third must drop.
	if !q.Enqueue(api.Feedback{PaperID: "p2", Kind: api.KindLike}) {
		t.Fatal("second Enqueue should fill the buffer")
	}
	if q.Enqueue(api.Feedback{PaperID: "p3", Kind: api.KindLike}) {
		t.Error("third Enqueue should drop when the buffer is full")
	}
	if got := q.Stats().Dropped; got != 1 {
		t.Errorf("Stats().Dropped = %d, want 1", got)
	}

	close(sub.gate)
	q.Close()

	if sub.count() != 2 {
		t.Errorf("expected the 2 accepted jobs to run, got %d", sub.count())
	}
}
