// Package crawler implements the polite breadth-first crawl core.
//
// # Architecture
//
// The package is organized around the Spider type, which owns the FIFO
// frontier, the visited set, and the crawl loop. The leaf components
// are small and independently testable:
//
//   - NormalizeURL: canonical URL form used as the dedup key
//   - Scope: allow/deny for discovered URLs (scheme, domain, extension)
//   - RobotsGate: per-host robots.txt cache with fail-open semantics
//   - Parser: HTML parsing (title, meta description, links, page text)
//   - Searcher: case-insensitive substring term counting
//   - Fetcher: one URL in, one page record plus its link set out
//
// # Politeness
//
// The crawl is strictly sequential: one request in flight at a time,
// with a configurable delay between consecutive fetches. robots.txt is
// respected by default. The delay is skipped after the final dequeue
// so an idle crawl terminates promptly.
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient, crawler.WithMaxDepth(2))
//	report, err := spider.Crawl(ctx, "example.com")
//
// A crawl's state (frontier, visited set, robots cache) lives for one
// Crawl call only, so a single Spider can run crawls back to back and
// concurrent Spiders never share mutable state.
package crawler
