package model

import "time"

// CrawlReport is the value returned by a finished crawl.
//
// Design decision: the crawl core returns this value instead of
// publishing progress through shared state. Any component that needs
// cross-crawl visibility (database, exporters, a job tracker) consumes
// the report after the fact, so the crawl loop owns its frontier,
// visited set, and result list exclusively while it runs.
type CrawlReport struct {
	// Seed is the normalized seed URL the crawl started from.
	Seed string `json:"seed"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl loop terminated.
	FinishedAt time.Time `json:"finished_at"`

	// Pages contains one record per successfully fetched HTML page,
	// in fetch-completion order. No URL appears twice.
	Pages []*PageRecord `json:"pages"`

	// VisitedURLs is the final visited set: every normalized URL that
	// was dequeued and processed, whether or not the fetch succeeded.
	// It is always a superset of the URLs in Pages.
	VisitedURLs []string `json:"visited_urls"`

	// SearchTerms are the case-normalized terms the crawl counted.
	// Recorded so exporters know whether word-match columns apply.
	SearchTerms []string `json:"search_terms,omitempty"`
}

// PagesCrawled returns the number of pages successfully crawled.
func (r *CrawlReport) PagesCrawled() int {
	return len(r.Pages)
}

// URLsDiscovered returns the total number of distinct URLs processed,
// including deduplicated, failed, and depth-excluded ones. This is the
// "total URLs discovered" figure in the crawl summary.
func (r *CrawlReport) URLsDiscovered() int {
	return len(r.VisitedURLs)
}

// Duration returns how long the crawl ran.
func (r *CrawlReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
