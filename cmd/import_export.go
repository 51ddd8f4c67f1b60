package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/importer"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import transcripts from a JSON corpus file or directory",
	Long: `Import customer-service transcripts into the local corpus.

The path may be a single JSON file or a directory of .json files. Accepted
shapes: a bare array of transcripts, an object with a "transcripts" or
"conversations" key, or a single transcript object.

Examples:
  rootcause import corpus.json
  rootcause import ./exports/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0])
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the corpus to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <transcript-id>",
	Short: "Delete a transcript from the corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := corpus.NewStore()
		if err != nil {
			return fmt.Errorf("failed to open corpus store: %w", err)
		}
		defer store.Close()

		if err := store.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✅ Deleted %s\n", args[0])
		return nil
	},
}

func runImport(path string) error {
	store, err := corpus.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open corpus store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	imp := importer.NewTranscriptImporter(store)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	var result *importer.ImportResult
	if info.IsDir() {
		result, err = imp.ImportFromDirectory(ctx, path)
	} else {
		result, err = imp.ImportFromFile(ctx, path)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✅ Imported %d/%d transcripts in %s\n",
		result.TranscriptsImported, result.TranscriptsProcessed, result.Duration.Round(1e6))
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "⚠️  %s\n", e)
	}
	return nil
}

// exportedTranscript matches the import format so an export round-trips
type exportedTranscript struct {
	TranscriptID string            `json:"transcript_id"`
	Domain       string            `json:"domain,omitempty"`
	Turns        []exportedTurn    `json:"turns"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type exportedTurn struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

func runExport(outPath string) error {
	store, err := corpus.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open corpus store: %w", err)
	}
	defer store.Close()

	transcripts, err := store.All(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	out := struct {
		Transcripts []exportedTranscript `json:"transcripts"`
	}{Transcripts: make([]exportedTranscript, 0, len(transcripts))}

	for _, t := range transcripts {
		et := exportedTranscript{
			TranscriptID: t.ID,
			Domain:       t.Domain,
			Metadata:     t.Metadata,
			Turns:        make([]exportedTurn, len(t.Turns)),
		}
		for i, turn := range t.Turns {
			et.Turns[i] = exportedTurn{
				Speaker:   string(turn.Speaker),
				Text:      turn.Text,
				Timestamp: turn.Timestamp,
			}
		}
		out.Transcripts = append(out.Transcripts, et)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	fmt.Printf("✅ Exported %d transcripts to %s\n", len(out.Transcripts), outPath)
	return nil
}
