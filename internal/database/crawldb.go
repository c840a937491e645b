package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pagehound/pagehound/internal/model"
)

// CrawlDB provides SQLite-based storage for finished crawl runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all crawl history
// rather than one file per seed. This simplifies cross-run queries and
// backup/restore operations.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "pagehound.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections buy nothing
	// for this workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Crawl runs store one row per finished crawl, with the full
	-- report preserved as JSON for lossless retrieval.
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages_crawled INTEGER NOT NULL,
		urls_discovered INTEGER NOT NULL,
		search_terms TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON crawl_runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Pages store individual page records for per-URL queries
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT,
		description TEXT,
		status_code INTEGER,
		content_length INTEGER,
		links_found INTEGER,
		word_matches TEXT,
		timestamp DATETIME,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a finished crawl report and its page records.
// Returns the database ID of the new crawl run.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	termsJSON, err := json.Marshal(report.SearchTerms)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize search terms: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (seed, started_at, finished_at, pages_crawled, urls_discovered, search_terms, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.Seed,
		report.StartedAt.UTC().Format(model.TimestampFormat),
		report.FinishedAt.UTC().Format(model.TimestampFormat),
		report.PagesCrawled(),
		report.URLsDiscovered(),
		string(termsJSON),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, page := range report.Pages {
		matchesJSON, err := json.Marshal(page.WordMatches)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize word matches: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, url, title, description, status_code, content_length, links_found, word_matches, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			page.URL,
			page.Title,
			page.Description,
			page.StatusCode,
			page.ContentLength,
			page.LinksFound,
			string(matchesJSON),
			page.Timestamp.UTC().Format(model.TimestampFormat),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert page record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl run: %w", err)
	}

	return runID, nil
}

// RunMetadata contains summary information about a stored crawl run.
// This is used for displaying crawl history without loading full reports.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Seed is the normalized seed URL of the run.
	Seed string

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// FinishedAt is when the crawl finished.
	FinishedAt time.Time

	// PagesCrawled is the number of pages the run captured.
	PagesCrawled int

	// URLsDiscovered is the size of the run's visited set.
	URLsDiscovered int

	// SearchTerms are the terms the run counted, if any.
	SearchTerms []string
}

// Duration returns how long the run took.
func (m *RunMetadata) Duration() time.Duration {
	return m.FinishedAt.Sub(m.StartedAt)
}

// ListRuns retrieves metadata for stored crawl runs, newest first.
// A seed filter narrows the result to runs of that seed; empty matches
// all. Limit <= 0 means no limit.
func (cdb *CrawlDB) ListRuns(ctx context.Context, seed string, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, seed, started_at, finished_at, pages_crawled, urls_discovered, search_terms
	FROM crawl_runs
	`
	args := make([]any, 0, 2)

	if seed != "" {
		query += " WHERE seed = ?"
		args = append(args, seed)
	}

	query += " ORDER BY started_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt, finishedAt string
		var termsJSON sql.NullString

		err := rows.Scan(
			&meta.ID,
			&meta.Seed,
			&startedAt,
			&finishedAt,
			&meta.PagesCrawled,
			&meta.URLsDiscovered,
			&termsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.FinishedAt = parseTimestamp(finishedAt)

		if termsJSON.Valid && termsJSON.String != "" {
			if err := json.Unmarshal([]byte(termsJSON.String), &meta.SearchTerms); err != nil {
				meta.SearchTerms = nil
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListSeeds returns every distinct seed URL with stored runs.
func (cdb *CrawlDB) ListSeeds(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT DISTINCT seed FROM crawl_runs
	ORDER BY seed
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// GetReportByID retrieves a stored crawl report by its database ID.
// Returns nil without error when no such run exists.
func (cdb *CrawlDB) GetReportByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, `
	SELECT report_json FROM crawl_runs WHERE id = ?
	`, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetLatestReport retrieves the most recent stored report for a seed.
// Returns nil without error when the seed has no stored runs.
func (cdb *CrawlDB) GetLatestReport(ctx context.Context, seed string) (*model.CrawlReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, `
	SELECT report_json FROM crawl_runs
	WHERE seed = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`, seed).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetPages retrieves the stored page records of a run in capture order.
func (cdb *CrawlDB) GetPages(ctx context.Context, runID int64) ([]*model.PageRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, title, description, status_code, content_length, links_found, word_matches, timestamp
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	var pages []*model.PageRecord
	for rows.Next() {
		var page model.PageRecord
		var matchesJSON sql.NullString
		var timestamp string

		err := rows.Scan(
			&page.URL,
			&page.Title,
			&page.Description,
			&page.StatusCode,
			&page.ContentLength,
			&page.LinksFound,
			&matchesJSON,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page record: %w", err)
		}

		page.Timestamp = parseTimestamp(timestamp)

		if matchesJSON.Valid && matchesJSON.String != "" {
			if err := json.Unmarshal([]byte(matchesJSON.String), &page.WordMatches); err != nil {
				page.WordMatches = nil
			}
		}

		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

// HasRecentRun checks if a seed was crawled within the specified duration.
func (cdb *CrawlDB) HasRecentRun(ctx context.Context, seed string, duration time.Duration) (bool, error) {
	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := cdb.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM crawl_runs
	WHERE seed = ? AND started_at > datetime('now', ?)
	`, seed, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent runs: %w", err)
	}

	return count > 0, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
