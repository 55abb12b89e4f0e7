// Paperwave is a terminal client for an infinite stream of research paper
// cards: swipe through ranked papers, like/bookmark/hide them, and let the
// narration engine read abstracts aloud while the viewport follows.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/leorudin/paperwave/internal/api"
	"github.com/leorudin/paperwave/internal/collection"
	"github.com/leorudin/paperwave/internal/config"
	"github.com/leorudin/paperwave/internal/dispatch"
	"github.com/leorudin/paperwave/internal/feed"
	"github.com/leorudin/paperwave/internal/interactions"
	"github.com/leorudin/paperwave/internal/logging"
	"github.com/leorudin/paperwave/internal/playback"
	"github.com/leorudin/paperwave/internal/store"
	"github.com/leorudin/paperwave/internal/ui"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fatal("Failed to load configuration: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		fatal("Invalid configuration: %v", err)
	}

	if err := logging.Init(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()
	logging.Info("paperwave starting", "backend", cfg.API.BaseURL)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		fatal("Failed to open local store: %v", err)
	}
	defer st.Close()
	logging.Info("store opened", "path", cfg.Storage.Path)

	client := api.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.RateLimit)

	// Preferences carry the resumable session state. A missing install id
	// marks the first run; seed the user-tunable values from config once.
	prefs, err := st.GetPreferences()
	if err != nil {
		logging.Warn("failed to read preferences", "error", err)
		prefs = store.DefaultPreferences()
	}
	if prefs.InstallID == "" {
		prefs.InstallID = uuid.NewString()
		prefs.AutoPlay = cfg.Playback.AutoPlay
		prefs.PlaybackRate = cfg.Playback.Rate
		prefs.LastSource = cfg.Feed.Source
		if err := st.PutPreferences(prefs); err != nil {
			logging.Warn("failed to persist install id", "error", err)
		}
	}
	client.SetInstallID(prefs.InstallID)

	// Fire-and-forget feedback submits.
	queue := dispatch.NewQueue(client, 2, 64)
	defer queue.Close()

	overlay := interactions.New(st, queue)
	controller := feed.NewController(cfg.Feed.InitialBatch, cfg.Feed.PageSize, cfg.Feed.Lookahead)
	viewer := collection.New(st, client)

	engine := playback.NewHTTPEngine(client)
	defer engine.Close()
	player := playback.New(engine, prefs.AutoPlay)
	player.SetRate(prefs.PlaybackRate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := ui.NewApp(ui.Deps{
		Feed:    controller,
		Overlay: overlay,
		Player:  player,
		Hydrate: func() tea.Cmd {
			return func() tea.Msg {
				var remote interactions.Remote
				if client.Authenticated() {
					remote = client
				}
				overlay.Load(ctx, remote)
				return ui.InteractionsReady{}
			}
		},
		FetchPage: func(req feed.Request) tea.Cmd {
			return func() tea.Msg {
				page, err := client.FetchFeed(ctx, api.FeedQuery{
					Offset:    req.Offset,
					Limit:     req.Limit,
					Source:    req.Session.Source,
					SubSource: req.Session.SubSource,
					Query:     req.Session.SearchPhrase,
				})
				if err != nil {
					return ui.FeedLoaded{Req: req, Err: err}
				}
				// Cache pages so collections hydrate without refetching.
				if _, err := st.PutPapers(page.Papers); err != nil {
					logging.Warn("failed to cache feed page", "error", err)
				}
				return ui.FeedLoaded{Req: req, Papers: page.Papers, Total: page.Total}
			}
		},
		PinList: func(kind collection.Kind, ids []string) tea.Cmd {
			return func() tea.Msg {
				snap, err := viewer.Pin(ctx, kind, ids)
				return ui.CollectionPinned{Snap: snap, Err: err}
			}
		},
		WaitEvent: func() tea.Cmd {
			return func() tea.Msg {
				ev, ok := <-engine.Events()
				if !ok {
					return nil
				}
				return ui.EngineEvent{Ev: ev}
			}
		},
		Sources: cfg.Feed.Sources,
		InitialSession: feed.Session{
			Source:    prefs.LastSource,
			SubSource: prefs.LastSubSource,
		},
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	logging.Info("starting UI")
	if _, err := p.Run(); err != nil {
		logging.Error("application error", "error", err)
		fatal("Error: %v", err)
	}

	// Persist the session so the next launch resumes where this one ended.
	session := controller.Session()
	prefs.LastSource = session.Source
	prefs.LastSubSource = session.SubSource
	prefs.AutoPlay = player.AutoPlay()
	prefs.PlaybackRate = player.Rate()
	if err := st.PutPreferences(prefs); err != nil {
		logging.Warn("failed to save preferences", "error", err)
	}
	logging.Info("paperwave exiting")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
