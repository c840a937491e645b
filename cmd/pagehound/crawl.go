package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pagehound/pagehound/internal/config"
	"github.com/pagehound/pagehound/internal/database"
	pagelog "github.com/pagehound/pagehound/internal/log"
	"github.com/pagehound/pagehound/internal/pipeline"
	"github.com/pagehound/pagehound/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]...",
		Short: "Crawl one or more websites breadth-first",
		Long: `Crawl fetches pages breadth-first starting from one or more seed URLs.

For every fetched HTML page it records the title, meta description,
status code, body size, and outgoing link count. Links are followed in
discovery order up to the configured depth and page budget, staying on
the seed's domain unless --domains widens the scope. robots.txt is
consulted before every fetch, and the crawler pauses between requests.

Examples:
  # Crawl a site two levels deep (the default)
  pagehound crawl https://example.com

  # Crawl deeper with a longer politeness delay
  pagehound crawl --depth 3 --delay 2s https://example.com

  # Count how often terms appear on each page
  pagehound crawl --search golang --search crawler https://example.com

  # Crawl several seeds concurrently and export CSV per seed
  pagehound crawl -b 4 -o results.csv https://a.example https://b.example

  # Emit a JSON report instead of the terminal summary
  pagehound crawl --json https://example.com

Configuration file (.pagehound) example:
  defaults:
    delay: 2s
  sites:
    example.com:
      depth: 3
      maxPages: 50`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from the seed (0 fetches only the seed)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per seed")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Politeness pause between consecutive requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each individual HTTP request")
	cmd.Flags().StringSlice("domains", nil,
		"Allowed domains (replaces the default of the seed's domain)")
	cmd.Flags().Bool("no-robots", false,
		"Ignore robots.txt (use only on sites you control)")
	cmd.Flags().StringSliceP("search", "s", nil,
		"Term to count on every fetched page (repeatable)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes to read")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when given multiple seeds")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagehound in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"CSV export path (empty string disables the export)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().BoolP("quiet", "q", false,
		"Suppress the terminal results summary")
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the crawl history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging. URLs pass through log attributes, so
	// the handler masks credentials embedded in query strings.
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)
	cfg.Verbose = verbose

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(verbose bool) *slog.Logger {
	return pagelog.NewLogger(os.Stderr, verbose)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.AllowedDomains, err = cmd.Flags().GetStringSlice("domains")
	if err != nil {
		return nil, err
	}

	noRobots, err := cmd.Flags().GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots

	cfg.SearchTerms, err = cmd.Flags().GetStringSlice("search")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.Quiet, err = cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site profiles from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Runs are saved under the XDG data directory unless --no-save.
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments are the seed URLs
	cfg.Seeds = args

	return cfg, nil
}

// runCrawl executes the crawl for all configured seeds.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"maxDepth", cfg.MaxDepth,
		"maxPages", cfg.MaxPages,
		"delay", cfg.Delay,
		"respectRobots", cfg.RespectRobots,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	client := &http.Client{Timeout: cfg.Timeout}

	jobs, err := buildJobs(cfg)
	if err != nil {
		return err
	}

	if len(jobs) > 1 && cfg.BatchSize > 1 {
		err = runBatchCrawl(ctx, cfg, client, db, jobs, logger)
	} else {
		err = runSequentialCrawl(ctx, cfg, client, db, jobs, logger)
	}
	if err != nil {
		return err
	}

	// A crawl that produced nothing at all is a failure, typically an
	// unreachable seed or a robots.txt that denies everything.
	total := 0
	for _, job := range jobs {
		if job.Report != nil {
			total += job.Report.PagesCrawled()
		}
	}
	if total == 0 {
		return errors.New("no pages were crawled")
	}

	return nil
}

// buildJobs creates one pipeline job per seed, with the seed's host
// profile from the config file already merged into its configuration.
func buildJobs(cfg *config.Config) ([]*pipeline.Job, error) {
	multi := len(cfg.Seeds) > 1
	jobs := make([]*pipeline.Job, 0, len(cfg.Seeds))

	for _, seed := range cfg.Seeds {
		host, err := seedHost(seed)
		if err != nil {
			return nil, fmt.Errorf("invalid seed URL %q: %w", seed, err)
		}

		jobCfg := cfg
		if cfg.SiteConfigs != nil {
			profile := cfg.SiteConfigs.GetSiteConfig(host)
			jobCfg = profile.Apply(cfg)
		}

		job := pipeline.NewJob(seed, jobCfg)
		if multi {
			job.OutputPath = seedOutputPath(jobCfg.OutputFile, host)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// seedHost extracts the hostname from a seed URL.
func seedHost(seed string) (string, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", errors.New("missing host")
	}
	return u.Hostname(), nil
}

// seedOutputPath derives a per-seed CSV path for multi-seed crawls so
// concurrent exports do not overwrite each other. "results.csv" for
// seed host example.com becomes "results_example.com.csv".
func seedOutputPath(path, host string) string {
	if path == "" {
		return ""
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_" + host + ext
}

// newCrawlPipeline assembles the crawl, persist, and export steps.
// The pipeline continues on error so a failed export still leaves the
// run recorded in the database.
func newCrawlPipeline(client *http.Client, db *database.CrawlDB, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewCrawlStep(client, logger),
		pipeline.NewPersistStep(db, logger),
		pipeline.NewExportStep(logger),
	)
	return p
}

// runSequentialCrawl crawls seeds one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.CrawlDB, jobs []*pipeline.Job, logger *slog.Logger) error {
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := newCrawlPipeline(client, db, logger)

		if !cfg.Quiet {
			fmt.Printf("Crawling %s...\n", job.Seed)
		}
		startTime := time.Now()

		if err := p.Execute(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("crawl failed", "seed", job.Seed, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", job.Seed, err)
			continue
		}
		if job.Err != nil {
			logger.Error("crawl step failed", "seed", job.Seed, "error", job.Err)
		}

		elapsed := time.Since(startTime)
		if !cfg.Quiet {
			fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))
		}

		if err := outputReport(cfg, job); err != nil {
			logger.Error("report failed", "seed", job.Seed, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple seeds concurrently using BatchProcessor.
// Per-host profiles still apply because each job carries its own merged
// configuration.
func runBatchCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.CrawlDB, jobs []*pipeline.Job, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d seeds (concurrency: %d)...\n\n",
		len(jobs), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return newCrawlPipeline(client, db, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Serialize report output; crawls themselves run concurrently.
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(job *pipeline.Job, index int) {
		mu.Lock()
		defer mu.Unlock()

		if job.Err != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] Crawl failed: %s: %v\n", index+1, len(jobs), job.Seed, job.Err)
			return
		}

		fmt.Printf("[%d/%d] Crawl completed: %s\n", index+1, len(jobs), job.Seed)

		if err := outputReport(cfg, job); err != nil {
			logger.Error("report failed", "seed", job.Seed, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport writes the crawl report to stdout in the requested format.
// The CSV export is handled separately by the pipeline's export step.
func outputReport(cfg *config.Config, job *pipeline.Job) error {
	if job.Report == nil {
		return nil
	}

	switch {
	case cfg.JSONReport:
		writer := report.NewFullJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(job.Report)
		return err
	case cfg.MarkdownReport:
		writer := report.NewMarkdownWriter(os.Stdout)
		_, err := writer.Write(job.Report)
		return err
	case cfg.Quiet:
		return nil
	default:
		writer := report.NewSimpleWriter(os.Stdout, report.WithVerbose(cfg.Verbose))
		_, err := writer.Write(job.Report)
		return err
	}
}
