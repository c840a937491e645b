package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pagehound/pagehound/internal/model"
)

// Default crawl settings, matching the CLI defaults.
const (
	defaultMaxDepth    = 2
	defaultMaxPages    = 100
	defaultDelay       = 1 * time.Second
	defaultMaxBodySize = 5 * 1024 * 1024 // 5MB
	defaultUserAgent   = "pagehound/1.0 (+https://github.com/pagehound/pagehound)"
)

// Spider drives the breadth-first crawl: it owns the FIFO frontier,
// the visited set, and the loop that turns fetched pages into frontier
// additions under the depth, page-count, and rate limits.
//
// A Spider holds configuration only. Each Crawl call builds its own
// frontier, visited set, and robots cache, so one Spider can run
// crawls back to back and concurrent Spiders never share state.
type Spider struct {
	// client is the HTTP client used for pages and robots.txt.
	// Its timeout bounds each individual request.
	client *http.Client

	// maxDepth limits discovery distance from the seed.
	// 0 means only the seed page is fetched.
	maxDepth int

	// maxPages caps the number of successfully crawled pages.
	maxPages int

	// delay is the politeness pause between consecutive fetches.
	delay time.Duration

	// respectRobots enables the robots.txt gate.
	respectRobots bool

	// allowedDomains restricts crawling to these hosts exactly.
	// Empty means "the seed's host alone", resolved at crawl start.
	allowedDomains []string

	// searchTerms are counted on every fetched page.
	searchTerms []string

	// userAgent identifies the crawler in requests and to robots.txt.
	userAgent string

	// maxBodySize limits the response bytes read per page.
	maxBodySize int64

	// progress, when set, is invoked after each processed URL.
	progress func(Progress)

	logger *slog.Logger
}

// Progress describes one processed frontier entry. It is delivered to
// the progress callback after the entry's fetch completed or failed,
// before the politeness delay.
type Progress struct {
	// URL is the normalized URL that was processed.
	URL string

	// Depth is the discovery depth of the URL.
	Depth int

	// Fetched is true when the URL produced a page record.
	Fetched bool

	// PagesCrawled is the running count of successful pages.
	PagesCrawled int
}

// Option configures a Spider.
type Option func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = the seed plus its links, and so on.
func WithMaxDepth(depth int) Option {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages caps the number of pages to crawl.
func WithMaxPages(maxPages int) Option {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the pause between consecutive fetches.
func WithDelay(d time.Duration) Option {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithRespectRobots enables or disables the robots.txt gate.
func WithRespectRobots(respect bool) Option {
	return func(s *Spider) {
		s.respectRobots = respect
	}
}

// WithAllowedDomains restricts the crawl to the given hosts. Matching
// is exact, so subdomains must be listed explicitly. When unset, the
// crawl is restricted to the seed's own host.
func WithAllowedDomains(domains []string) Option {
	return func(s *Spider) {
		s.allowedDomains = domains
	}
}

// WithSearchTerms sets the terms counted on every fetched page.
func WithSearchTerms(terms []string) Option {
	return func(s *Spider) {
		s.searchTerms = terms
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size per page.
func WithMaxBodySize(size int64) Option {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithProgress registers a callback invoked after each processed URL.
// The callback runs on the crawl goroutine; slow callbacks slow the
// crawl.
func WithProgress(fn func(Progress)) Option {
	return func(s *Spider) {
		s.progress = fn
	}
}

// WithLogger sets the structured logger used by the crawl.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider using the given HTTP client.
//
// Design decision: the client is supplied by the caller so tests can
// inject httptest clients and the CLI controls the request timeout in
// one place.
func NewSpider(client *http.Client, opts ...Option) *Spider {
	s := &Spider{
		client:        client,
		maxDepth:      defaultMaxDepth,
		maxPages:      defaultMaxPages,
		delay:         defaultDelay,
		respectRobots: true,
		userAgent:     defaultUserAgent,
		maxBodySize:   defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// frontierEntry is one (url, depth) pair awaiting processing.
type frontierEntry struct {
	url   string
	depth int
}

// Crawl runs a breadth-first crawl from the seed URL and returns the
// accumulated report. The only error condition is an unusable seed or
// a cancelled context; every per-URL failure is absorbed into the
// loop. On cancellation the partial report is returned alongside the
// context's error.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.CrawlReport, error) {
	seed, err := NormalizeURL(seedURL)
	if err != nil {
		return nil, err
	}

	seedParsed, err := url.Parse(seed)
	if err != nil || seedParsed.Host == "" {
		return nil, errors.New("seed URL has no host: " + seedURL)
	}

	domains := s.allowedDomains
	if len(domains) == 0 {
		domains = []string{seedParsed.Host}
	}

	searcher := NewSearcher(s.searchTerms)
	fetcher := &Fetcher{
		client:      s.client,
		userAgent:   s.userAgent,
		maxBodySize: s.maxBodySize,
		robots:      NewRobotsGate(s.client, s.userAgent, s.respectRobots, s.logger),
		scope:       NewScope(domains),
		searcher:    searcher,
		logger:      s.logger,
	}

	s.logger.Info("starting crawl",
		"seed", seed,
		"maxDepth", s.maxDepth,
		"maxPages", s.maxPages,
		"delay", s.delay,
		"respectRobots", s.respectRobots,
		"allowedDomains", domains,
		"searchTerms", searcher.Terms(),
	)

	report := &model.CrawlReport{
		Seed:        seed,
		StartedAt:   time.Now(),
		Pages:       make([]*model.PageRecord, 0),
		VisitedURLs: make([]string, 0),
		SearchTerms: searcher.Terms(),
	}

	frontier := []frontierEntry{{url: seed, depth: 0}}
	visited := make(map[string]struct{})
	pagesCrawled := 0

	for len(frontier) > 0 && pagesCrawled < s.maxPages {
		// Callers signal early termination between iterations.
		select {
		case <-ctx.Done():
			report.FinishedAt = time.Now()
			return report, ctx.Err()
		default:
		}

		entry := frontier[0]
		frontier = frontier[1:]

		if _, ok := visited[entry.url]; ok {
			continue
		}
		// Well-formed enqueues never exceed maxDepth; this guards
		// against executing a corrupt entry, not against normal flow.
		if entry.depth > s.maxDepth {
			continue
		}

		// Visited regardless of outcome, so a permanently failing URL
		// can never be retried into an infinite loop.
		visited[entry.url] = struct{}{}
		report.VisitedURLs = append(report.VisitedURLs, entry.url)

		s.logger.Debug("fetching", "url", entry.url, "depth", entry.depth)

		record, links, err := fetcher.Fetch(ctx, entry.url)
		switch {
		case errors.Is(err, errRobotsDenied):
			s.logger.Info("robots.txt disallows crawling", "url", entry.url)
		case err != nil:
			s.logger.Warn("fetch failed", "url", entry.url, "error", err)
		case record != nil:
			report.Pages = append(report.Pages, record)
			pagesCrawled++

			s.logger.Info("crawled",
				"url", entry.url,
				"status", record.StatusCode,
				"title", record.Title,
				"links", record.LinksFound,
			)

			if entry.depth < s.maxDepth {
				for _, link := range links {
					if _, ok := visited[link]; !ok {
						frontier = append(frontier, frontierEntry{url: link, depth: entry.depth + 1})
					}
				}
			}
		}

		if s.progress != nil {
			s.progress(Progress{
				URL:          entry.url,
				Depth:        entry.depth,
				Fetched:      record != nil,
				PagesCrawled: pagesCrawled,
			})
		}

		// Politeness delay, skipped when nothing is left to fetch.
		if s.delay > 0 && len(frontier) > 0 {
			select {
			case <-ctx.Done():
				report.FinishedAt = time.Now()
				return report, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	report.FinishedAt = time.Now()

	s.logger.Info("crawl completed",
		"seed", seed,
		"pagesCrawled", report.PagesCrawled(),
		"urlsDiscovered", report.URLsDiscovered(),
		"duration", report.Duration(),
	)

	return report, nil
}
