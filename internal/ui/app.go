// Package ui implements the terminal front end: an infinite swipeable
// stream of paper cards with narration, likes, bookmarks, and pinned
// collections. All state machines (feed, overlay, synchronizer) are mutated
// on the Bubble Tea loop; I/O runs behind injected command factories so
// tests can script every exchange.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leorudin/paperwave/internal/collection"
	"github.com/leorudin/paperwave/internal/feed"
	"github.com/leorudin/paperwave/internal/interactions"
	"github.com/leorudin/paperwave/internal/playback"
)

type viewMode int

const (
	modeFeed viewMode = iota
	modeCollection
)

// Deps bundles the cores and command factories the App runs on. The factories
// perform the actual I/O off-loop and resolve to the messages in messages.go.
type Deps struct {
	Feed    *feed.Controller
	Overlay *interactions.Overlay
	Player  *playback.Synchronizer

	// Hydrate loads the interaction overlay; resolves to InteractionsReady.
	Hydrate func() tea.Cmd
	// FetchPage runs one feed page fetch; resolves to FeedLoaded.
	FetchPage func(feed.Request) tea.Cmd
	// PinList hydrates a collection snapshot; resolves to CollectionPinned.
	PinList func(collection.Kind, []string) tea.Cmd
	// WaitEvent blocks for the next engine event; resolves to EngineEvent
	// and must be re-armed after every delivery.
	WaitEvent func() tea.Cmd

	// Sources is the tab-cycle order; InitialSession picks the session
	// restored from preferences.
	Sources        []string
	InitialSession feed.Session
}

// App is the root model. Value semantics per Bubble Tea; the cores are
// pointers so every copy drives the same state machines.
type App struct {
	feed    *feed.Controller
	overlay *interactions.Overlay
	player  *playback.Synchronizer

	hydrate   func() tea.Cmd
	fetchPage func(feed.Request) tea.Cmd
	pinList   func(collection.Kind, []string) tea.Cmd
	waitEvent func() tea.Cmd

	stream    Stream
	search    textinput.Model
	searching bool

	mode   viewMode
	pinned *collection.Snapshot

	sources   []string
	sourceIdx int
	initial   feed.Session

	width  int
	height int
	ready  bool
	err    error
}

func NewApp(d Deps) App {
	a := App{
		feed:      d.Feed,
		overlay:   d.Overlay,
		player:    d.Player,
		hydrate:   d.Hydrate,
		fetchPage: d.FetchPage,
		pinList:   d.PinList,
		waitEvent: d.WaitEvent,
		sources:   d.Sources,
		initial:   d.InitialSession,
		stream:    NewStream(),
		search:    newSearchInput(),
	}
	if len(a.sources) == 0 {
		a.sources = []string{"arxiv"}
	}
	if a.initial.Source == "" {
		a.initial.Source = a.sources[0]
	}
	for i, s := range a.sources {
		if s == a.initial.Source {
			a.sourceIdx = i
			break
		}
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.stream.spinner.Tick}
	if a.hydrate != nil {
		cmds = append(cmds, a.hydrate())
	}
	if a.waitEvent != nil {
		cmds = append(cmds, a.waitEvent())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.search.Width = msg.Width - 4
		a.syncStreamSize()
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case spinner.TickMsg:
		cmd := a.stream.TickSpinner(msg)
		return a, cmd

	case ScrollTick:
		a.stream.UpdateScroll()
		if a.stream.IsScrolling() {
			return a, scrollTickCmd()
		}
		return a, nil

	case InteractionsReady:
		// Hidden ids are now known; safe to start the first feed load.
		return a.startSession(a.initial)

	case FeedLoaded:
		a.feed.ApplyResult(msg.Req, msg.Papers, msg.Total, msg.Err)
		if msg.Err != nil {
			a.setErr(msg.Err)
			return a, nil
		}
		if a.mode == modeFeed {
			a.refreshFromFeed()
			if cmd := a.maybePrefetch(); cmd != nil {
				return a, cmd
			}
		}
		return a, nil

	case CollectionPinned:
		if msg.Err != nil {
			a.setErr(msg.Err)
			return a, nil
		}
		a.mode = modeCollection
		a.pinned = msg.Snap
		a.stream.SetPapers(msg.Snap.Papers())
		a.player.SyncList(msg.Snap.IDs())
		a.player.HandleViewportChange(a.stream.CurrentID())
		return a, nil

	case EngineEvent:
		var cmds []tea.Cmd
		if a.waitEvent != nil {
			cmds = append(cmds, a.waitEvent())
		}
		if id := a.player.HandleEngineEvent(msg.Ev); id != "" {
			// Narration advanced on its own: glide the viewport to the
			// new card and acknowledge the move so it is not mistaken
			// for the user swiping away.
			if a.stream.ScrollToID(id) {
				a.player.HandleViewportChange(id)
				cmds = append(cmds, scrollTickCmd())
				if cmd := a.maybePrefetch(); cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		}
		return a, tea.Batch(cmds...)
	}
	return a, nil
}

func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		switch msg.String() {
		case "esc":
			a.closeSearch()
			return a, nil
		case "enter":
			phrase := strings.TrimSpace(a.search.Value())
			a.closeSearch()
			if phrase == "" {
				return a, nil
			}
			s := a.feed.Session()
			s.SearchPhrase = phrase
			return a.startSession(s)
		default:
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(msg)
			return a, cmd
		}
	}

	// Any keypress dismisses a sticky error banner.
	if a.err != nil {
		a.err = nil
		a.syncStreamSize()
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		if !a.stream.MoveDown() {
			return a, nil
		}
		return a.afterMove()

	case "k", "up":
		if !a.stream.MoveUp() {
			return a, nil
		}
		return a.afterMove()

	case "g", "home":
		a.stream.JumpTop()
		return a.afterMove()

	case "G", "end":
		a.stream.JumpBottom()
		return a.afterMove()

	case "l":
		if id := a.stream.CurrentID(); id != "" {
			a.overlay.ToggleLike(id)
		}
		return a, nil

	case "b":
		if id := a.stream.CurrentID(); id != "" {
			a.overlay.ToggleBookmark(id)
		}
		return a, nil

	case "x":
		return a.hideCurrent()

	case " ":
		if id := a.stream.CurrentID(); id != "" {
			a.player.ToggleSpeech(id)
		}
		return a, nil

	case "a":
		a.player.SetAutoPlay(!a.player.AutoPlay())
		return a, nil

	case "+", "=":
		a.player.SetRate(clampRate(a.player.Rate() + 0.25))
		return a, nil

	case "-":
		a.player.SetRate(clampRate(a.player.Rate() - 0.25))
		return a, nil

	case "tab":
		if a.mode != modeFeed {
			return a, nil
		}
		a.sourceIdx = (a.sourceIdx + 1) % len(a.sources)
		return a.startSession(feed.Session{Source: a.sources[a.sourceIdx]})

	case "/":
		a.searching = true
		a.syncStreamSize()
		cmd := a.search.Focus()
		return a, cmd

	case "L":
		if a.pinList == nil {
			return a, nil
		}
		return a, a.pinList(collection.Liked, a.overlay.LikedIDs())

	case "B":
		if a.pinList == nil {
			return a, nil
		}
		return a, a.pinList(collection.Bookmarked, a.overlay.BookmarkedIDs())

	case "esc":
		if a.mode == modeCollection {
			a.exitCollection()
			return a, nil
		}
		if s := a.feed.Session(); s.SearchPhrase != "" {
			s.SearchPhrase = ""
			return a.startSession(s)
		}
		return a, nil

	case "r":
		if a.mode != modeFeed {
			return a, nil
		}
		return a, a.beginLoad()
	}
	return a, nil
}

// afterMove runs the shared post-navigation steps: report the viewport
// change (pausing narration if the user swiped away), animate, prefetch.
func (a App) afterMove() (tea.Model, tea.Cmd) {
	a.player.HandleViewportChange(a.stream.CurrentID())
	cmds := []tea.Cmd{scrollTickCmd()}
	if cmd := a.maybePrefetch(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) hideCurrent() (tea.Model, tea.Cmd) {
	if a.mode != modeFeed {
		return a, nil
	}
	id := a.stream.CurrentID()
	if id == "" {
		return a, nil
	}
	a.overlay.AddNotInterested(id)
	a.feed.Hide(id)
	a.refreshFromFeed()
	a.player.HandleViewportChange(a.stream.CurrentID())
	if cmd := a.maybePrefetch(); cmd != nil {
		return a, cmd
	}
	return a, nil
}

// startSession switches the feed to a new session tuple and kicks off its
// first page. A no-op tuple change still drops back to the live feed.
func (a App) startSession(s feed.Session) (tea.Model, tea.Cmd) {
	changed := a.feed.SetSession(s)
	a.mode = modeFeed
	a.pinned = nil
	a.refreshFromFeed()
	if !changed {
		a.player.HandleViewportChange(a.stream.CurrentID())
		return a, nil
	}
	return a, a.beginLoad()
}

func (a *App) exitCollection() {
	a.mode = modeFeed
	a.pinned = nil
	a.refreshFromFeed()
	a.player.HandleViewportChange(a.stream.CurrentID())
}

// refreshFromFeed re-mirrors the controller's list into the viewport and the
// narration queue.
func (a *App) refreshFromFeed() {
	a.stream.SetPapers(a.feed.Items())
	a.player.SyncList(a.feed.IDs())
}

func (a *App) beginLoad() tea.Cmd {
	if a.fetchPage == nil {
		return nil
	}
	req, ok := a.feed.BeginLoad(a.overlay.Snapshot().NotInterested)
	if !ok {
		return nil
	}
	return a.fetchPage(req)
}

func (a *App) maybePrefetch() tea.Cmd {
	if a.mode != modeFeed || !a.feed.NeedsMore(a.stream.Cursor()) {
		return nil
	}
	return a.beginLoad()
}

func (a *App) setErr(err error) {
	a.err = err
	a.syncStreamSize()
}

// syncStreamSize keeps the card window sized to the rows left over after the
// status bar and any transient bars.
func (a *App) syncStreamSize() {
	if !a.ready {
		return
	}
	h := a.height - 1
	if a.err != nil {
		h--
	}
	if a.searching {
		h--
	}
	a.stream.SetSize(a.width, h)
}

func (a *App) closeSearch() {
	a.searching = false
	a.search.Blur()
	a.search.Reset()
	a.syncStreamSize()
}

func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	sections := []string{a.stream.View(a.cardStates(), a.loading())}
	if a.searching {
		sections = append(sections, RenderSearchBar(a.search.View(), a.width))
	}
	if a.err != nil {
		sections = append(sections, RenderErrorBar(a.err, a.width))
	}
	sections = append(sections, RenderStatusBar(a.width, a.stream.Cursor(), a.stream.Len(), a.loading(), a.statusLabel()))
	return strings.Join(sections, "\n")
}

func (a App) loading() bool {
	return a.mode == modeFeed && a.feed.Loading()
}

func (a App) statusLabel() string {
	var label string
	if a.mode == modeCollection && a.pinned != nil {
		label = string(a.pinned.Kind())
	} else {
		s := a.feed.Session()
		label = s.Source
		if s.SubSource != "" {
			label += "/" + s.SubSource
		}
		if s.SearchPhrase != "" {
			label += fmt.Sprintf(" %q", s.SearchPhrase)
		}
	}
	if a.player.IsSpeaking() || a.player.IsLoadingAudio() {
		label += " · ▶"
	}
	if rate := a.player.Rate(); rate != 1.0 {
		label += fmt.Sprintf(" · %.3gx", rate)
	}
	if a.player.AutoPlay() {
		label += " · auto"
	}
	return label
}

func clampRate(rate float64) float64 {
	if rate < 0.5 {
		return 0.5
	}
	if rate > 2.5 {
		return 2.5
	}
	return rate
}

// cardStates derives the per-card overlay and narration state for the
// viewport's current list.
func (a App) cardStates() []CardState {
	papers := a.stream.Papers()
	narrated := a.player.CurrentID()
	state := a.player.State()
	audioErr := a.player.AudioError()

	states := make([]CardState, len(papers))
	for i := range papers {
		id := papers[i].ID
		states[i] = CardState{
			Liked:      a.overlay.IsLiked(id),
			Bookmarked: a.overlay.IsBookmarked(id),
		}
		if narrated != "" && id == narrated {
			states[i].Narrated = true
			states[i].Playback = state
			states[i].AudioErr = audioErr
		}
	}
	return states
}

// Cursor returns the viewport cursor. Exposed for tests.
func (a App) Cursor() int { return a.stream.Cursor() }

// CurrentPaperID returns the id under the cursor. Exposed for tests.
func (a App) CurrentPaperID() string { return a.stream.CurrentID() }

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search papers"
	ti.CharLimit = 120
	return ti
}

func scrollTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(time.Time) tea.Msg { return ScrollTick{} })
}
