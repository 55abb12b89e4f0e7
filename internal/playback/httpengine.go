package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leorudin/paperwave/internal/api"
	"github.com/leorudin/paperwave/internal/logging"
)

// narrationFetchTimeout bounds a single clip lookup.
const narrationFetchTimeout = 15 * time.Second

// fallbackClipSeconds stands in when the backend reports no clip duration.
const fallbackClipSeconds = 30.0

// NarrationFetcher resolves a paper id to its narration clip. *api.Client
// satisfies it.
type NarrationFetcher interface {
	FetchNarration(ctx context.Context, id string) (*api.NarrationClip, error)
}

// HTTPEngine is the reference Engine. It resolves clips through the backend
// narration endpoint and models clip progression with a wall-clock timer, so
// the whole synchronization path, auto-advance included, runs end to end in
// a terminal. A platform audio bridge replaces it where real sound output
// exists.
type HTTPEngine struct {
	fetcher NarrationFetcher
	events  chan Event

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	ids       []string
	current   string
	playing   bool
	auto      bool
	rate      float64
	clipDur   time.Duration
	remaining time.Duration
	deadline  time.Time
	timer     *time.Timer
	gen       uint64 // invalidates in-flight loads and stale clip timers
}

// NewHTTPEngine builds an engine around the given fetcher. Call Close when
// done to release the progression timer and any in-flight lookup.
func NewHTTPEngine(f NarrationFetcher) *HTTPEngine {
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPEngine{
		fetcher: f,
		events:  make(chan Event, 32),
		ctx:     ctx,
		cancel:  cancel,
		rate:    1.0,
	}
}

func (e *HTTPEngine) Events() <-chan Event { return e.events }

// Close stops playback and abandons background work.
func (e *HTTPEngine) Close() {
	e.cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.stopTimerLocked()
	e.playing = false
}

func (e *HTTPEngine) SetQueue(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids[:0:0], ids...)
	if e.current == "" || e.indexLocked(e.current) >= 0 {
		return
	}
	// The clip being played was dropped from the queue.
	e.gen++
	e.stopTimerLocked()
	e.current = ""
	if e.playing {
		e.playing = false
		e.emit(StateChanged{Playing: false})
	}
}

func (e *HTTPEngine) AppendItems(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, ids...)
}

// PlayID resolves the clip for id and starts its progression. Any previous
// clip or in-flight lookup is abandoned.
func (e *HTTPEngine) PlayID(id string) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.stopTimerLocked()
	e.current = id
	e.playing = false
	e.clipDur = 0
	e.remaining = 0
	e.mu.Unlock()

	go e.load(gen, id)
}

func (e *HTTPEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		// Pausing during a load abandons the pending clip.
		e.gen++
		return
	}
	e.stopTimerLocked()
	e.remaining = time.Until(e.deadline)
	if e.remaining < 0 {
		e.remaining = 0
	}
	e.playing = false
	e.emit(StateChanged{Playing: false})
}

func (e *HTTPEngine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing || e.current == "" {
		return
	}
	if e.clipDur == 0 {
		// The clip was never resolved (load abandoned); fetch it fresh.
		e.gen++
		go e.load(e.gen, e.current)
		return
	}
	if e.remaining <= 0 {
		e.remaining = e.clipDur
	}
	e.playing = true
	e.startTimerLocked(e.gen)
	e.emit(StateChanged{Playing: true})
}

func (e *HTTPEngine) SetAutoAdvance(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auto = on
}

// SetRate sets the narration speed multiplier. Takes effect from the next
// clip.
func (e *HTTPEngine) SetRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rate <= 0 {
		rate = 1.0
	}
	e.rate = rate
}

func (e *HTTPEngine) load(gen uint64, id string) {
	ctx, cancel := context.WithTimeout(e.ctx, narrationFetchTimeout)
	defer cancel()

	clip, err := e.fetcher.FetchNarration(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return // superseded while fetching
	}
	if err != nil {
		if errors.Is(err, api.ErrNotGenerated) {
			err = fmt.Errorf("engine: paper %s: %w", id, ErrNotGenerated)
		} else {
			err = fmt.Errorf("engine: paper %s: %w", id, err)
		}
		e.current = ""
		e.emit(Failed{ID: id, Err: err})
		return
	}

	seconds := clip.DurationSec
	if seconds <= 0 {
		seconds = fallbackClipSeconds
	}
	e.clipDur = time.Duration(seconds / e.rate * float64(time.Second))
	e.remaining = e.clipDur
	e.playing = true
	e.startTimerLocked(gen)
	e.emit(CurrentItemChanged{ID: id})
	e.emit(StateChanged{Playing: true})
}

// clipDone fires when a clip's progression timer expires.
func (e *HTTPEngine) clipDone(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || !e.playing {
		return
	}
	e.timer = nil

	next := ""
	if e.auto {
		if i := e.indexLocked(e.current); i >= 0 && i+1 < len(e.ids) {
			next = e.ids[i+1]
		}
	}
	if next == "" {
		// End of clip with nothing to advance to; the next Resume replays.
		e.playing = false
		e.remaining = e.clipDur
		e.emit(StateChanged{Playing: false})
		return
	}

	e.gen++
	e.current = next
	e.playing = false
	e.clipDur = 0
	e.remaining = 0
	go e.load(e.gen, next)
}

func (e *HTTPEngine) startTimerLocked(gen uint64) {
	e.deadline = time.Now().Add(e.remaining)
	e.timer = time.AfterFunc(e.remaining, func() { e.clipDone(gen) })
}

func (e *HTTPEngine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *HTTPEngine) indexLocked(id string) int {
	for i, v := range e.ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (e *HTTPEngine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		logging.Warn("engine event dropped", "type", fmt.Sprintf("%T", ev))
	}
}
