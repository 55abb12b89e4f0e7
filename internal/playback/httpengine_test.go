package playback

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leorudin/paperwave/internal/api"
)

type fakeFetcher struct {
	clips map[string]*api.NarrationClip
	err   error
}

func (f *fakeFetcher) FetchNarration(ctx context.Context, id string) (*api.NarrationClip, error) {
	if f.err != nil {
		return nil, f.err
	}
	clip, ok := f.clips[id]
	if !ok {
		return nil, fmt.Errorf("api: paper %s: %w", id, api.ErrNotGenerated)
	}
	return clip, nil
}

func clip(id string, seconds float64) *api.NarrationClip {
	return &api.NarrationClip{PaperID: id, AudioURL: "https://cdn.test/" + id + ".mp3", DurationSec: seconds}
}

func newTestEngine(t *testing.T, f *fakeFetcher) *HTTPEngine {
	t.Helper()
	eng := NewHTTPEngine(f)
	t.Cleanup(eng.Close)
	return eng
}

func waitEvent(t *testing.T, eng *HTTPEngine) Event {
	t.Helper()
	select {
	case ev := <-eng.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for engine event")
		return nil
	}
}

func expectItem(t *testing.T, eng *HTTPEngine, id string) {
	t.Helper()
	ev := waitEvent(t, eng)
	got, ok := ev.(CurrentItemChanged)
	if !ok || got.ID != id {
		t.Fatalf("event = %#v, want CurrentItemChanged{%s}", ev, id)
	}
}

func expectPlaying(t *testing.T, eng *HTTPEngine, playing bool) {
	t.Helper()
	ev := waitEvent(t, eng)
	got, ok := ev.(StateChanged)
	if !ok || got.Playing != playing {
		t.Fatalf("event = %#v, want StateChanged{Playing:%v}", ev, playing)
	}
}

func TestHTTPEnginePlaysClip(t *testing.T) {
	eng := newTestEngine(t, &fakeFetcher{clips: map[string]*api.NarrationClip{
		"a": clip("a", 600),
	}})
	eng.SetQueue([]string{"a"})

	eng.PlayID("a")

	expectItem(t, eng, "a")
	expectPlaying(t, eng, true)
}

func TestHTTPEngineNotGenerated(t *testing.T) {
	eng := newTestEngine(t, &fakeFetcher{clips: map[string]*api.NarrationClip{}})

	eng.PlayID("missing")

	ev := waitEvent(t, eng)
	failed, ok := ev.(Failed)
	if !ok || failed.ID != "missing" {
		t.Fatalf("event = %#v, want Failed{missing}", ev)
	}
	if !errors.Is(failed.Err, ErrNotGenerated) {
		t.Errorf("err = %v, want wrapped ErrNotGenerated", failed.Err)
	}
}

func TestHTTPEngineTransportFailure(t *testing.T) {
	eng := newTestEngine(t, &fakeFetcher{err: errors.New("api: status 500")})

	eng.PlayID("a")

	ev := waitEvent(t, eng)
	failed, ok := ev.(Failed)
	if !ok {
		t.Fatalf("event = %#v, want Failed", ev)
	}
	if errors.Is(failed.Err, ErrNotGenerated) {
		t.Error("transport failure must not classify as not-generated")
	}
}

func TestHTTPEnginePauseResume(t *testing.T) {
	eng := newTestEngine(t, &fakeFetcher{clips: map[string]*api.NarrationClip{
		"a": clip("a", 600),
	}})
	eng.SetQueue([]string{"a"})
	eng.PlayID("a")
	expectItem(t, eng, "a")
	expectPlaying(t, eng, true)

	eng.Pause()
	expectPlaying(t, eng, false)

	eng.Resume()
	expectPlaying(t, eng, true)
}

func TestHTTPEngineAutoAdvance(t *testing.T) {
	eng := newTestEngine(t, &fakeFetcher{clips: map[string]*api.NarrationClip{
		"a": clip("a", 0.05),
		"b": clip("b", 600),
	}})
	eng.SetQueue([]string{"a", "b"})
	eng.SetAutoAdvance(true)

	eng.PlayID("a")
	expectItem(t, eng, "a")
	expectPlaying(t, eng, true)

	// The clip runs out and the engine moves to the next queued id on its
	// own.
	expectItem(t, eng, "b")
	expectPlaying(t, eng, true)
}

func TestHTTPEngineNoAdvanceWhenOff(t *testing.T) {
	eng := newTestEngine(t, &fakeFetcher{clips: map[string]*api.NarrationClip{
		"a": clip("a", 0.05),
		"b": clip("b", 600),
	}})
	eng.SetQueue([]string{"a", "b"})
	eng.SetAutoAdvance(false)

	eng.PlayID("a")
	expectItem(t, eng, "a")
	expectPlaying(t, eng, true)

	expectPlaying(t, eng, false)
}

func TestHTTPEngineSetQueueDropsCurrent(t *testing.T) {
	eng := newTestEngine(t, &fakeFetcher{clips: map[string]*api.NarrationClip{
		"a": clip("a", 600),
		"b": clip("b", 600),
	}})
	eng.SetQueue([]string{"a", "b"})
	eng.PlayID("a")
	expectItem(t, eng, "a")
	expectPlaying(t, eng, true)

	eng.SetQueue([]string{"b"})

	expectPlaying(t, eng, false)
}
