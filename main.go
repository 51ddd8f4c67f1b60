// Rootcause - conversation retrieval and causal explanation engine
// Finds customer-service transcripts relevant to a query and explains
// why the conversation ended the way it did.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/latticehq/rootcause/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Optional .env for API keys and data dir overrides
	_ = godotenv.Load()

	cmd.SetVersion(version, commit, date)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
