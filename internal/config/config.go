package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These match the crawler's built-in defaults so CLI, config file, and
// library users see the same behavior.
const (
	// DefaultTimeout is the per-request HTTP timeout. 10 seconds is
	// generous for ordinary web servers while keeping a stuck crawl
	// from hanging indefinitely on one URL.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxDepth of 2 explores the seed, its links, and their
	// links. That is enough to map a site's surface without the crawl
	// ballooning. Larger sites may need this increased via CLI flags.
	DefaultMaxDepth = 2

	// DefaultBatchSize of 10 concurrent crawls balances throughput with
	// resource usage when processing multiple seeds. Each crawl is
	// still strictly sequential internally.
	DefaultBatchSize = 10

	// DefaultMaxPages is the maximum number of pages to crawl per seed.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 100

	// AppName is the application name used for XDG directory paths.
	AppName = "pagehound"

	// DefaultDelay is the politeness delay between requests during
	// crawling. 1 second is conservative and respectful of server
	// resources. Can be adjusted via the --delay CLI flag.
	DefaultDelay = 1 * time.Second

	// DefaultUserAgent identifies pagehound in HTTP requests.
	// A descriptive User-Agent is good practice and allows operators
	// to identify crawler traffic in their logs.
	DefaultUserAgent = "pagehound/1.0 (+https://github.com/pagehound/pagehound)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultOutputFile is the CSV export path when --output is not given.
	DefaultOutputFile = "crawl_results.csv"
)

// Config holds all configuration options for pagehound.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Seeds is the list of seed URLs to crawl.
	// Must contain at least one URL.
	Seeds []string

	// MaxDepth is the maximum discovery distance from the seed.
	// Depth 0 means only fetch the seed page.
	MaxDepth int

	// MaxPages is the maximum number of pages to crawl per seed.
	// This prevents runaway crawling on large sites.
	MaxPages int

	// Delay is the politeness pause between consecutive HTTP requests.
	// Lower values may cause rate limiting or service disruption.
	Delay time.Duration

	// Timeout is the timeout for each individual HTTP request.
	// This applies to single connections, not the overall crawl duration.
	Timeout time.Duration

	// RespectRobots enables the robots.txt gate. Disabling it should be
	// reserved for sites the operator controls.
	RespectRobots bool

	// AllowedDomains restricts crawling to these hosts. When empty, the
	// crawl is restricted to each seed's own host.
	AllowedDomains []string

	// SearchTerms are counted case-insensitively on every fetched page.
	SearchTerms []string

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps operators identify crawler traffic.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory
	// exhaustion. Set to 0 to use the default (5MB).
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Quiet suppresses the terminal results summary. Exports and
	// database persistence still happen.
	Quiet bool

	// BatchSize is the number of concurrent crawls when processing
	// multiple seeds. Each individual crawl remains sequential.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .pagehound in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host profiles loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of the terminal
	// summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// terminal summary. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// OutputFile is the CSV export path. When empty, no CSV is written.
	OutputFile string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/pagehound on
	// Linux).
	DBDir string

	// SaveToDB indicates whether to persist finished runs to the
	// crawl history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, delay).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:      DefaultMaxDepth,
		MaxPages:      DefaultMaxPages,
		Delay:         DefaultDelay,
		Timeout:       DefaultTimeout,
		RespectRobots: true,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		BatchSize:     DefaultBatchSize,
		SaveToDB:      true,
	}
}

// XDGDataDir returns the XDG data directory for pagehound.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/pagehound
// On macOS: ~/Library/Application Support/pagehound
// On Windows: %LOCALAPPDATA%\pagehound
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagehound.
// On Linux: ~/.config/pagehound
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}

	// Zero or negative timeout would cause immediate request failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Negative depth is meaningless; 0 means seed-only
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}

	// A page budget of zero would crawl nothing
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	// Negative delay is invalid; use 0 for no delay between requests
	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
