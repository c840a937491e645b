package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pagehound/pagehound/internal/config"
	"github.com/pagehound/pagehound/internal/crawler"
	"github.com/pagehound/pagehound/internal/database"
	"github.com/pagehound/pagehound/internal/model"
	"github.com/pagehound/pagehound/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects crawl runs stored in the local database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Inspect crawl runs saved in the local database",
		Long: `History lists and replays crawl runs recorded by 'pagehound crawl'.

Without flags it lists the stored runs for the given seed URL, newest
first. Individual runs can be replayed in any report format without
re-crawling the site.

Examples:
  # List all seeds with stored runs
  pagehound history --list-seeds

  # List stored runs for a seed
  pagehound history https://example.com

  # Replay the latest run for a seed
  pagehound history --latest https://example.com

  # Replay a specific run by ID
  pagehound history --id 5

  # Replay a run as JSON
  pagehound history --id 5 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().BoolP("list-seeds", "L", false,
		"List all seeds with stored runs")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list")

	// Replay flags
	cmd.Flags().Int64P("id", "i", 0,
		"Replay a specific run by ID (see the run list for IDs)")
	cmd.Flags().BoolP("latest", "l", false,
		"Replay the most recent run for the seed")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the replayed report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the replayed report in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSeeds, err := cmd.Flags().GetBool("list-seeds")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	// Validate arguments before opening the database so a usage error
	// does not leave a lock behind.
	// Runs are stored under the normalized seed, so the argument must
	// go through the same normalization or lookups miss. A user who
	// crawled "example.com" finds it again as "example.com" even
	// though the row holds "https://example.com".
	var seed string
	if len(args) > 0 {
		seed, err = crawler.NormalizeURL(args[0])
		if err != nil {
			return fmt.Errorf("invalid seed URL %q: %w", args[0], err)
		}
	}
	if !listSeeds && runID == 0 && seed == "" {
		return errors.New("seed URL is required (use --list-seeds to see stored seeds)")
	}
	if latest && seed == "" {
		return errors.New("--latest requires a seed URL")
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch {
	case listSeeds:
		return listStoredSeeds(ctx, db)
	case runID != 0:
		return replayRunByID(ctx, db, runID, jsonOutput, markdownOutput)
	case latest:
		return replayLatestRun(ctx, db, seed, jsonOutput, markdownOutput)
	default:
		return listRunHistory(ctx, db, seed, limit)
	}
}

// listStoredSeeds lists all seeds that have runs in the database.
func listStoredSeeds(ctx context.Context, db *database.CrawlDB) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}

	if len(seeds) == 0 {
		fmt.Println("No stored crawl runs found in the database.")
		fmt.Println("\nUse 'pagehound crawl <url>' to crawl a site.")
		return nil
	}

	fmt.Printf("Stored seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Printf("  • %s\n", seed)
	}
	fmt.Println("\nUse 'pagehound history <url>' to see runs for a seed.")

	return nil
}

// listRunHistory lists stored runs for a specific seed, newest first.
func listRunHistory(ctx context.Context, db *database.CrawlDB, seed string, limit int) error {
	runs, err := db.ListRuns(ctx, seed, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No stored runs found for %s\n", seed)
		fmt.Println("\nUse 'pagehound crawl' to crawl this site.")
		return nil
	}

	fmt.Printf("Crawl runs for %s (%d runs):\n\n", seed, len(runs))
	fmt.Printf("  %-6s  %-20s  %6s  %6s  %s\n", "ID", "Started", "Pages", "URLs", "Duration")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, run := range runs {
		fmt.Printf("  %-6d  %-20s  %6d  %6d  %s\n",
			run.ID,
			run.StartedAt.Format(model.TimestampFormat),
			run.PagesCrawled,
			run.URLsDiscovered,
			run.Duration().Round(time.Millisecond),
		)
	}

	fmt.Println("\nUse 'pagehound history --id <id>' to replay a run.")

	return nil
}

// replayRunByID prints a stored report by its database ID.
func replayRunByID(ctx context.Context, db *database.CrawlDB, runID int64, jsonOutput, markdownOutput bool) error {
	stored, err := db.GetReportByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	if stored == nil {
		return fmt.Errorf("run with ID %d not found", runID)
	}
	return writeStoredReport(stored, jsonOutput, markdownOutput)
}

// replayLatestRun prints the most recent stored report for a seed.
func replayLatestRun(ctx context.Context, db *database.CrawlDB, seed string, jsonOutput, markdownOutput bool) error {
	stored, err := db.GetLatestReport(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to get latest run: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("no stored runs found for %s", seed)
	}
	return writeStoredReport(stored, jsonOutput, markdownOutput)
}

// writeStoredReport renders a stored report in the requested format.
func writeStoredReport(stored *model.CrawlReport, jsonOutput, markdownOutput bool) error {
	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewFullJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint())
	case markdownOutput:
		writer = report.NewMarkdownWriter(os.Stdout)
	default:
		writer = report.NewSimpleWriter(os.Stdout, report.WithVerbose(true))
	}

	_, err := writer.Write(stored)
	return err
}
