package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func runCache() {
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	pruneDays := fs.Int("prune-days", 0,
		"Delete paper snapshots fetched more than N days ago (collections refetch them on demand)")
	fs.Parse(os.Args[1:])

	st := openDB()
	defer st.Close()

	count, err := st.CountPapers()
	if err != nil {
		log.Fatalf("failed to count papers: %v", err)
	}
	fmt.Printf("Cached papers: %d\n", count)

	if *pruneDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -*pruneDays)
	pruned, err := st.PrunePapers(cutoff)
	if err != nil {
		log.Fatalf("prune failed: %v", err)
	}
	fmt.Printf("Pruned:        %d (fetched before %s)\n", pruned, cutoff.Format("2006-01-02"))
}
