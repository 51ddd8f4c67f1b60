package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/latticehq/rootcause/internal/analysis"
	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/retrieval"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Retrieve relevant transcripts and explain the outcome",
	Long: `Retrieve the transcripts most relevant to a question, then generate a
causal explanation (primary cause, supporting factors, evidence, confidence).

Examples:
  rootcause ask "why did the customer escalate"
  rootcause ask "unauthorized transaction amount" --top 5
  rootcause ask "where is my package" --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runAsk(args[0], top, asJSON)
	},
}

func init() {
	askCmd.Flags().Int("top", 3, "Number of transcripts to retrieve")
	askCmd.Flags().Bool("json", false, "Print the explanation as JSON")
}

func runAsk(query string, top int, asJSON bool) error {
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

	transcripts := make([]*corpus.Transcript, 0, len(results))
	for _, r := range results {
		t, err := store.Get(ctx, r.TranscriptID)
		if err != nil {
			return fmt.Errorf("failed to load transcript: %w", err)
		}
		transcripts = append(transcripts, t)
	}

	analyzer, err := analysis.NewDefaultAnalyzer()
	if err != nil {
		return fmt.Errorf("failed to load pattern vocabulary: %w", err)
	}

	explanation, err := analyzer.Analyze(query, transcripts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(explanation)
	}

	fmt.Println(formatExplanation(explanation))
	return nil
}

// engineOptions builds retrieval options from the environment.
// ROOTCAUSE_SEMANTIC=off forces lexical-only retrieval.
func engineOptions() retrieval.Options {
	return retrieval.Options{
		DisableSemantic: os.Getenv("ROOTCAUSE_SEMANTIC") == "off",
	}
}
