package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/latticehq/rootcause/internal/analysis"
	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rootcause %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Show the loaded causal pattern vocabulary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPatterns()
	},
}

func runStatus() error {
	store, err := corpus.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open corpus store: %w", err)
	}
	defer store.Close()

	count, err := store.Count(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count transcripts: %w", err)
	}

	fmt.Println("📁 Corpus status")
	fmt.Printf("   Transcripts: %d\n", count)
	if size, err := store.Size(); err == nil {
		fmt.Printf("   Database:    %s\n", size)
	}
	fmt.Printf("   Embedder:    %d dimensions\n", store.Embedder().Dimensions())
	if store.VecIndexAvailable() {
		fmt.Println("   Vec index:   available")
	} else {
		fmt.Println("   Vec index:   unavailable (linear scan)")
	}
	return nil
}

func runPatterns() error {
	patterns, err := analysis.DefaultPatterns()
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}

	stats := patterns.Stats()
	categories := make([]string, 0, len(stats))
	for c := range stats {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	fmt.Printf("🧩 %d causal patterns\n", patterns.Len())
	for _, c := range categories {
		fmt.Printf("   %-14s %d\n", c, stats[analysis.Category(c)])
	}
	return nil
}
