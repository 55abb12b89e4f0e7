package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func runConfig() {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()

	token := "(not set)"
	if cfg.API.Token != "" {
		token = maskToken(cfg.API.Token)
	}

	fmt.Printf("api.base_url:        %s\n", cfg.API.BaseURL)
	fmt.Printf("api.token:           %s\n", token)
	fmt.Printf("api.rate_limit:      %.1f req/s\n", cfg.API.RateLimit)
	fmt.Printf("feed.source:         %s\n", cfg.Feed.Source)
	fmt.Printf("feed.sources:        %s\n", strings.Join(cfg.Feed.Sources, ", "))
	fmt.Printf("feed.initial_batch:  %d\n", cfg.Feed.InitialBatch)
	fmt.Printf("feed.page_size:      %d\n", cfg.Feed.PageSize)
	fmt.Printf("feed.lookahead:      %d\n", cfg.Feed.Lookahead)
	fmt.Printf("playback.rate:       %.2fx\n", cfg.Playback.Rate)
	fmt.Printf("playback.auto_play:  %v\n", cfg.Playback.AutoPlay)
	fmt.Printf("storage.path:        %s\n", cfg.Storage.Path)
	fmt.Printf("log.level:           %s\n", cfg.Log.Level)
}

// maskToken keeps enough of the token to recognize it without leaking it.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
