package cmd

import (
	"github.com/spf13/cobra"
)

// Build-time variables
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// SetVersion sets the version info from main
func SetVersion(v, c, d string) {
	Version = v
	Commit = c
	Date = d
}

var rootCmd = &cobra.Command{
	Use:   "rootcause",
	Short: "Rootcause - conversation causal analysis",
	Long: `Retrieve customer-service transcripts relevant to a question and
explain why the conversation ended the way it did.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the rootcause command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// ask, search (defined in ask.go, search.go)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)

	// import, export, delete (defined in import_export.go)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(deleteCmd)

	// status, version, patterns (defined in status.go)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(patternsCmd)

	// doctor (defined in doctor.go)
	rootCmd.AddCommand(doctorCmd)
}
