package playback

import "errors"

// ErrNotGenerated reports that no narration exists for a paper. Engine
// implementations wrap their transport-specific "missing narration" failures
// in this sentinel so the Synchronizer can classify them as non-retryable.
var ErrNotGenerated = errors.New("playback: narration not generated")

// State is the Synchronizer's transport state for the narrated card.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// AudioError classifies the most recent narration failure.
type AudioError int

const (
	AudioOK AudioError = iota
	// AudioNotGenerated: the backend has no narration for this card. The UI
	// shows a disabled affordance; retrying will not help.
	AudioNotGenerated
	// AudioEngineFailed: a transport or player failure. The user may retry
	// with another ToggleSpeech.
	AudioEngineFailed
)

func (e AudioError) String() string {
	switch e {
	case AudioNotGenerated:
		return "not_generated"
	case AudioEngineFailed:
		return "engine"
	default:
		return ""
	}
}

// Event is an engine-originated notification delivered on Events().
type Event interface{ isEvent() }

// CurrentItemChanged reports that the engine's own cursor moved to a queue
// item, either echoing a PlayID or auto-advancing at end of clip.
type CurrentItemChanged struct{ ID string }

// StateChanged reports the engine's transport state: Playing is true while
// audio is audible, false when paused or stopped.
type StateChanged struct{ Playing bool }

// Failed reports that the engine could not start or continue narration.
type Failed struct {
	ID  string
	Err error
}

func (CurrentItemChanged) isEvent() {}
func (StateChanged) isEvent()       {}
func (Failed) isEvent()             {}

// Engine is the sequential narration player the Synchronizer drives. The
// queue mirrors the visible feed order; implementations decide how clips are
// resolved and rendered. Commands are asynchronous: outcomes surface on
// Events(), which the UI loop pumps back into the Synchronizer.
type Engine interface {
	// SetQueue replaces the queue wholesale. A clip already playing for an id
	// retained in the new queue keeps playing.
	SetQueue(ids []string)
	// AppendItems appends ids to the end of the queue, which may be empty.
	// Never interrupts the current clip.
	AppendItems(ids []string)
	// PlayID starts narration for id, replacing any current clip.
	PlayID(id string)
	Pause()
	Resume()
	// SetAutoAdvance controls whether the engine moves to the next queued id
	// at end of clip (reported via CurrentItemChanged).
	SetAutoAdvance(on bool)
	// SetRate sets the narration speed multiplier.
	SetRate(rate float64)
	Events() <-chan Event
}
