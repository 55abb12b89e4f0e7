// Package playback keeps the narration cursor and the visible feed in mutual
// sync without feedback loops.
//
// Two parties move the same cursor: the user by swiping between cards, and
// the engine by auto-advancing at end of clip. An engine-originated move is
// recorded as a pending navigation id before the UI is asked to scroll; when
// the echo of that scroll comes back through HandleViewportChange it is
// consumed by exact id match instead of being read as user navigation (which
// stops narration). A timer-based suppression window would misclassify rapid
// manual swipes inside the window; the id match cannot.
package playback

import (
	"errors"
	"sync"

	"github.com/leorudin/paperwave/internal/logging"
)

// Synchronizer owns the playback cursor: which card is narrated and in what
// transport state. It never blocks; engine commands are fire-and-forget and
// their outcomes return through HandleEngineEvent.
type Synchronizer struct {
	mu     sync.Mutex
	engine Engine

	state     State
	currentID string
	audioErr  AudioError
	autoPlay  bool
	rate      float64

	// pendingNav is the id of an engine-originated navigation whose scroll
	// echo has not yet arrived. Empty when nothing is pending.
	pendingNav string

	// known mirrors the id queue last handed to the engine.
	known  []string
	queued bool
}

// New wires a Synchronizer to its engine. The autoplay preference is
// forwarded so the engine knows whether to advance at end of clip.
func New(engine Engine, autoPlay bool) *Synchronizer {
	engine.SetAutoAdvance(autoPlay)
	return &Synchronizer{engine: engine, autoPlay: autoPlay, rate: 1.0}
}

// ToggleSpeech flips narration for the card the user invoked it on. Playing
// or loading the same id pauses; paused on the same id resumes; anything
// else starts a fresh load of the target's narration. A toggle always clears
// a previous audio error, so a failed card can be retried.
func (s *Synchronizer) ToggleSpeech(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audioErr = AudioOK

	switch s.state {
	case StatePlaying, StateLoading:
		if s.currentID == id {
			s.engine.Pause()
			s.state = StatePaused
			return
		}
		s.playLocked(id)
	case StatePaused:
		if s.currentID == id {
			s.engine.Resume()
			s.state = StateLoading
			return
		}
		s.playLocked(id)
	default:
		s.playLocked(id)
	}
}

func (s *Synchronizer) playLocked(id string) {
	s.currentID = id
	s.state = StateLoading
	s.engine.PlayID(id)
}

// HandleViewportChange classifies a viewport move onto id and reports true
// when the move was the echo of the Synchronizer's own scroll request.
//
// The echo is consumed by exact id match and changes nothing else. Every
// other move is user navigation: it supersedes any unacknowledged pending
// scroll, pauses narration when the user leaves the narrated card, and
// dismisses a stale error badge.
func (s *Synchronizer) HandleViewportChange(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingNav != "" && s.pendingNav == id {
		s.pendingNav = ""
		return true
	}
	s.pendingNav = ""

	switch s.state {
	case StatePlaying, StateLoading:
		if s.currentID != id {
			s.engine.Pause()
			s.state = StatePaused
		}
	case StateError:
		if s.currentID != id {
			s.currentID = ""
			s.audioErr = AudioOK
			s.state = StateIdle
		}
	}
	return false
}

// HandleEngineEvent folds one engine notification into the cursor state and
// returns the id the UI must scroll to, or "" when no scroll is needed.
func (s *Synchronizer) HandleEngineEvent(ev Event) (scrollTo string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case CurrentItemChanged:
		if e.ID == "" || e.ID == s.currentID {
			return ""
		}
		// The engine advanced on its own. Move the cursor and remember the
		// id so the echo of the scroll below is not read as user navigation.
		s.currentID = e.ID
		s.audioErr = AudioOK
		if s.state == StateError {
			s.state = StateLoading
		}
		s.pendingNav = e.ID
		return e.ID
	case StateChanged:
		if e.Playing {
			s.state = StatePlaying
			s.audioErr = AudioOK
		} else if s.state == StatePlaying {
			s.state = StatePaused
		}
	case Failed:
		s.state = StateError
		if e.ID != "" {
			s.currentID = e.ID
		}
		if errors.Is(e.Err, ErrNotGenerated) {
			s.audioErr = AudioNotGenerated
		} else {
			s.audioErr = AudioEngineFailed
		}
		logging.Warn("narration failed", "paper", s.currentID, "error", e.Err)
	}
	return ""
}

// SyncList reconciles the engine queue with the active ordered list after a
// feed change. Pure suffix growth appends only the new ids, so an in-flight
// clip is never interrupted by pagination; any other reshaping replaces the
// queue wholesale. If the narrated card is no longer in the list (hidden, or
// the session switched) the cursor clears and playback stops.
func (s *Synchronizer) SyncList(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.queued || len(s.known) == 0:
		s.setQueueLocked(ids)
	case len(ids) >= len(s.known) && prefixEqual(ids, s.known):
		if len(ids) > len(s.known) {
			suffix := make([]string, len(ids)-len(s.known))
			copy(suffix, ids[len(s.known):])
			s.engine.AppendItems(suffix)
			s.known = append(s.known, suffix...)
		}
	default:
		s.setQueueLocked(ids)
	}

	if s.currentID == "" {
		return
	}
	for _, id := range s.known {
		if id == s.currentID {
			return
		}
	}
	// The narrated card left the list.
	if s.state == StatePlaying || s.state == StateLoading {
		s.engine.Pause()
	}
	s.currentID = ""
	s.pendingNav = ""
	s.audioErr = AudioOK
	s.state = StateIdle
}

func (s *Synchronizer) setQueueLocked(ids []string) {
	queue := make([]string, len(ids))
	copy(queue, ids)
	s.engine.SetQueue(queue)
	s.known = queue
	s.queued = true
}

func prefixEqual(ids, prefix []string) bool {
	if len(ids) < len(prefix) {
		return false
	}
	for i := range prefix {
		if ids[i] != prefix[i] {
			return false
		}
	}
	return true
}

// State returns the current transport state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentID returns the id of the narrated card, or "" when none.
func (s *Synchronizer) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// IsSpeaking reports whether narration is audible right now.
func (s *Synchronizer) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StatePlaying
}

// IsLoadingAudio reports whether a narration clip is being fetched.
func (s *Synchronizer) IsLoadingAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateLoading
}

// AudioError returns the classification of the last narration failure, or
// AudioOK when there is none.
func (s *Synchronizer) AudioError() AudioError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioErr
}

// AutoPlay reports the autoplay preference.
func (s *Synchronizer) AutoPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPlay
}

// SetAutoPlay updates the autoplay preference and forwards it to the engine.
func (s *Synchronizer) SetAutoPlay(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPlay = on
	s.engine.SetAutoAdvance(on)
}

// Rate reports the narration speed preference.
func (s *Synchronizer) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetRate records the narration speed preference and forwards it to the
// engine. Non-positive rates reset to normal speed.
func (s *Synchronizer) SetRate(rate float64) {
	if rate <= 0 {
		rate = 1.0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	s.engine.SetRate(rate)
}
