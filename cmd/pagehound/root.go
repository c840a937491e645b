package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagehound.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagehound",
		Short: "A polite breadth-first web crawler",
		Long: `pagehound crawls websites breadth-first, collecting page titles,
descriptions, and link counts while respecting robots.txt and pausing
between requests. It can count search terms on every fetched page and
export results as CSV, JSON, or Markdown reports. Finished crawls are
saved to a local SQLite database for later inspection.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output with detailed logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
