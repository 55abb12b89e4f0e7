package main

import (
	"log"

	"github.com/leorudin/paperwave/internal/config"
	"github.com/leorudin/paperwave/internal/store"
)

// loadConfig resolves the layered configuration or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	return cfg
}

// openDB opens the local store or fatals.
func openDB() *store.Store {
	st, err := store.Open(loadConfig().Storage.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
