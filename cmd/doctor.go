package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/latticehq/rootcause/internal/analysis"
	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the installation and environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor()
	},
}

func runDoctor() error {
	ok := true

	dataDir := os.Getenv("ROOTCAUSE_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println("❌ Cannot determine home directory")
			return err
		}
		dataDir = filepath.Join(home, ".rootcause")
	}
	fmt.Printf("📁 Data dir: %s\n", dataDir)

	store, err := corpus.NewStore()
	if err != nil {
		fmt.Printf("❌ Store: %v\n", err)
		return err
	}
	defer store.Close()
	fmt.Println("✅ Store: opened")

	if store.VecIndexAvailable() {
		fmt.Println("✅ Vec index: sqlite-vec loaded")
	} else {
		fmt.Println("⚠️  Vec index: unavailable, semantic scoring uses a linear scan")
	}

	// Probe the embedding backend with a small input
	emb := store.Embedder()
	if _, err := emb.Embed("probe"); err != nil {
		fmt.Printf("⚠️  Embedder: %v (lexical retrieval still works)\n", err)
	} else {
		fmt.Printf("✅ Embedder: %d dimensions\n", emb.Dimensions())
	}

	if patterns, err := analysis.DefaultPatterns(); err != nil {
		fmt.Printf("❌ Patterns: %v\n", err)
		ok = false
	} else {
		fmt.Printf("✅ Patterns: %d compiled\n", patterns.Len())
	}

	count, err := store.Count(context.Background())
	if err != nil {
		fmt.Printf("❌ Corpus: %v\n", err)
		ok = false
	} else if count == 0 {
		fmt.Println("⚠️  Corpus: empty, run 'rootcause import' first")
	} else {
		fmt.Printf("✅ Corpus: %d transcripts\n", count)
	}

	if !ok {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}
