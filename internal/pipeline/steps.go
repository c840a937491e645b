package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pagehound/pagehound/internal/crawler"
	"github.com/pagehound/pagehound/internal/database"
	"github.com/pagehound/pagehound/internal/report"
)

// CrawlStep runs the breadth-first crawl for the job's seed and stores
// the resulting report on the job.
type CrawlStep struct {
	// client is the HTTP client shared by crawls. Per-request timeouts
	// come from the client itself.
	client *http.Client

	logger *slog.Logger
}

// NewCrawlStep creates a crawl step using the given HTTP client.
func NewCrawlStep(client *http.Client, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{
		client: client,
		logger: logger,
	}
}

// Name returns the step name for logging.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do runs the crawl. A cancelled context still leaves the partial
// report on the job so later steps can persist what was collected.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	cfg := job.Config

	spider := crawler.NewSpider(s.client,
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDelay(cfg.Delay),
		crawler.WithRespectRobots(cfg.RespectRobots),
		crawler.WithAllowedDomains(cfg.AllowedDomains),
		crawler.WithSearchTerms(cfg.SearchTerms),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithLogger(s.logger),
	)

	result, err := spider.Crawl(ctx, job.Seed)
	job.Report = result

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("crawl interrupted, keeping partial results",
			"seed", job.Seed,
			"pagesCrawled", result.PagesCrawled(),
		)
		return nil
	}

	return err
}

// PersistStep saves the finished crawl report to the history database.
type PersistStep struct {
	db     *database.CrawlDB
	logger *slog.Logger
}

// NewPersistStep creates a persist step writing to the given database.
func NewPersistStep(db *database.CrawlDB, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{
		db:     db,
		logger: logger,
	}
}

// Name returns the step name for logging.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the job's report. Jobs that opted out of persistence or
// produced no report are skipped without error.
func (s *PersistStep) Do(ctx context.Context, job *Job) error {
	if job.Report == nil {
		s.logger.Debug("no report to persist", "seed", job.Seed)
		return nil
	}
	if !job.Config.SaveToDB || s.db == nil {
		s.logger.Debug("persistence disabled", "seed", job.Seed)
		return nil
	}

	runID, err := s.db.SaveReport(ctx, job.Report)
	if err != nil {
		return fmt.Errorf("failed to persist crawl run: %w", err)
	}

	job.RunID = runID
	s.logger.Debug("crawl run persisted", "seed", job.Seed, "runID", runID)
	return nil
}

// ExportStep writes the job's report to its CSV output path.
type ExportStep struct {
	logger *slog.Logger
}

// NewExportStep creates a CSV export step.
func NewExportStep(logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{logger: logger}
}

// Name returns the step name for logging.
func (s *ExportStep) Name() string {
	return "export"
}

// Do writes the CSV file. Jobs without an output path or report are
// skipped. The word_matches column is written only when the job had
// search terms configured; link counts are always exported.
func (s *ExportStep) Do(_ context.Context, job *Job) error {
	if job.Report == nil {
		s.logger.Debug("no report to export", "seed", job.Seed)
		return nil
	}
	if job.OutputPath == "" {
		s.logger.Debug("CSV export disabled", "seed", job.Seed)
		return nil
	}

	if dir := filepath.Dir(job.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(job.OutputPath) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writer := report.NewCSVWriter(f,
		report.WithWordMatchesColumn(len(job.Config.SearchTerms) > 0),
	)

	if _, err := writer.Write(job.Report); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write CSV export: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	s.logger.Info("results saved",
		"seed", job.Seed,
		"file", job.OutputPath,
		"pages", job.Report.PagesCrawled(),
	)
	return nil
}
