package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	st := openDB()
	defer st.Close()

	count, err := st.CountPapers()
	if err != nil {
		log.Fatalf("failed to count papers: %v", err)
	}
	fmt.Printf("Cached papers:     %d\n", count)

	rec, err := st.GetInteractions()
	if err != nil {
		log.Fatalf("failed to read interactions: %v", err)
	}
	fmt.Printf("Liked:             %d\n", len(rec.Liked))
	fmt.Printf("Bookmarked:        %d\n", len(rec.Bookmarked))
	fmt.Printf("Not interested:    %d\n", len(rec.NotInterested))
	fmt.Printf("Aggregate counts:  %d\n", len(rec.Counts))

	prefs, err := st.GetPreferences()
	if err != nil {
		log.Fatalf("failed to read preferences: %v", err)
	}
	session := prefs.LastSource
	if prefs.LastSubSource != "" {
		session += "/" + prefs.LastSubSource
	}
	if session == "" {
		session = "(none)"
	}
	fmt.Println()
	fmt.Printf("Install id:        %s\n", prefs.InstallID)
	fmt.Printf("Last session:      %s\n", session)
	fmt.Printf("Auto-play:         %v\n", prefs.AutoPlay)
	fmt.Printf("Playback rate:     %.2fx\n", prefs.PlaybackRate)
}
