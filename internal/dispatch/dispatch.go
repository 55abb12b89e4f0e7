// Package dispatch runs fire-and-forget feedback submissions off the event
// loop. Jobs are unordered and never retried: a failed submit is logged and
// dropped, matching the optimistic-overlay contract where local state is
// already persisted before the wire call starts.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leorudin/paperwave/internal/api"
	"github.com/leorudin/paperwave/internal/logging"
)

// Submitter is the slice of the API client the queue needs.
type Submitter interface {
	SubmitFeedback(ctx context.Context, fb api.Feedback) error
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Submitted int64
	Failed    int64
	Dropped   int64
	Pending   int
}

// Queue is a bounded worker pool over feedback jobs.
type Queue struct {
	submitter Submitter
	jobs      chan api.Feedback
	timeout   time.Duration
	wg        sync.WaitGroup

	mu     sync.Mutex
	closed bool

	submitted int64
	failed    int64
	dropped   int64
}

// NewQueue creates the queue and starts its workers immediately.
// workers <= 0 defaults to 2; buffer <= 0 defaults to 64.
func NewQueue(submitter Submitter, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}

	q := &Queue{
		submitter: submitter,
		jobs:      make(chan api.Feedback, buffer),
		timeout:   10 * time.Second,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

// Enqueue hands one feedback job to the workers without blocking. Returns
// false when the queue is full or closed; the job is dropped either way and
// the caller moves on.
func (q *Queue) Enqueue(fb api.Feedback) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	select {
	case q.jobs <- fb:
		return true
	default:
		atomic.AddInt64(&q.dropped, 1)
		logging.Warn("feedback queue full, dropping submit",
			"paper", fb.PaperID,
			"kind", fb.Kind)
		return false
	}
}

// Close stops accepting jobs, drains the buffer, and waits for workers.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	logging.Info("feedback queue stopped",
		"submitted", atomic.LoadInt64(&q.submitted),
		"failed", atomic.LoadInt64(&q.failed),
		"dropped", atomic.LoadInt64(&q.dropped))
}

// Stats returns current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Submitted: atomic.LoadInt64(&q.submitted),
		Failed:    atomic.LoadInt64(&q.failed),
		Dropped:   atomic.LoadInt64(&q.dropped),
		Pending:   len(q.jobs),
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for fb := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.submitter.SubmitFeedback(ctx, fb)
		cancel()

		if err != nil {
			atomic.AddInt64(&q.failed, 1)
			logging.Warn("feedback submit failed",
				"paper", fb.PaperID,
				"kind", fb.Kind,
				"error", err)
			continue
		}
		atomic.AddInt64(&q.submitted, 1)
	}
}
