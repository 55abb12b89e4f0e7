package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/leorudin/paperwave/internal/store"
)

func runInteractions() {
	fs := flag.NewFlagSet("interactions", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Dump the raw interaction record as JSON")
	fs.Parse(os.Args[1:])

	st := openDB()
	defer st.Close()

	rec, err := st.GetInteractions()
	if err != nil {
		log.Fatalf("failed to read interactions: %v", err)
	}

	if *asJSON {
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			log.Fatalf("failed to encode record: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	printSet(st, "Liked", rec.Liked)
	fmt.Println()
	printSet(st, "Bookmarked", rec.Bookmarked)
	fmt.Println()
	printSet(st, "Not interested", rec.NotInterested)
}

// printSet lists one id set with cached titles where available.
func printSet(st *store.Store, name string, ids []string) {
	fmt.Printf("%s (%d):\n", name, len(ids))
	if len(ids) == 0 {
		return
	}

	papers, err := st.GetPapers(ids)
	if err != nil {
		log.Fatalf("failed to resolve papers: %v", err)
	}
	titles := make(map[string]string, len(papers))
	for _, p := range papers {
		titles[p.ID] = p.Title
	}

	for _, id := range ids {
		title := titles[id]
		if title == "" {
			title = "(not cached)"
		}
		fmt.Printf("  %-24s %s\n", id, truncate(title, 60))
	}
}
