// Command pw is the maintenance CLI for the paperwave local store.
//
// Usage:
//
//	pw                   Show help
//	pw stats             Cache and interaction statistics
//	pw interactions      Show the liked/bookmarked/hidden sets
//	pw cache             Inspect the paper cache, optionally pruning it
//	pw config            Print the resolved configuration
package main

import (
	"fmt"
	"os"
)

const usage = `pw — paperwave maintenance CLI

Usage:
  pw <command> [flags]

Commands:
  stats         Cache and interaction statistics
  interactions  Show the liked/bookmarked/hidden id sets
  cache         Inspect the paper cache; --prune-days removes old snapshots
  config        Print the resolved configuration (token masked)

Environment:
  PAPERWAVE_*   Override any config key (e.g. PAPERWAVE_API_BASE_URL)

Run 'pw <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "stats":
		runStats()
	case "interactions":
		runInteractions()
	case "cache":
		runCache()
	case "config":
		runConfig()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "pw: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
