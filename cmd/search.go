package cmd

import (
	"context"
	"fmt"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/retrieval"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank transcripts against a query",
	Long: `Rank stored transcripts against a query without running analysis.

Examples:
  rootcause search "fraud claim"
  rootcause search "package never arrived" --top 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		return runSearch(args[0], top)
	},
}

func init() {
	searchCmd.Flags().Int("top", 3, "Number of results to return")
}

func runSearch(query string, top int) error {
	store, err := corpus.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open corpus store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	engine := retrieval.NewEngine(store, engineOptions())
	results, err := engine.Retrieve(ctx, query, top)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Printf("🔎 %d result(s) for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Printf("%d. %s  (score %.3f, %s)\n", i+1, r.TranscriptID, r.Score, r.Method)
		if t, err := store.Get(ctx, r.TranscriptID); err == nil {
			if reason := t.ReasonForCall(); reason != "" {
				fmt.Printf("   %s\n", reason)
			}
		}
	}
	return nil
}
