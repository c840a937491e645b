package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pagehound/pagehound/internal/model"
)

// errRobotsDenied marks URLs the robots gate refused. The spider logs
// these apart from transport failures; neither aborts the crawl.
var errRobotsDenied = fmt.Errorf("disallowed by robots.txt")

// Fetcher performs the network request for one URL and builds the page
// record plus its outbound link set. Failures never escape the fetch
// boundary as anything other than "this page yields nothing": the
// spider logs them and moves on.
type Fetcher struct {
	// client is the HTTP client carrying the per-request timeout.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits how many response bytes are read.
	maxBodySize int64

	// robots gates every fetch when robots respect is enabled.
	robots *RobotsGate

	// scope filters discovered links before they reach the frontier.
	scope *Scope

	// searcher counts the configured terms on every fetched page.
	searcher *Searcher

	logger *slog.Logger
}

// Fetch retrieves one page. On success it returns the page record and
// the unique, normalized, in-scope links discovered on the page, in
// document order. A nil record means the page yielded nothing; the URL
// still counts as visited either way.
//
// The content-type gate runs after the body is downloaded, not via a
// HEAD probe, so the byte cost of a non-HTML response is still
// incurred. That simplification is deliberate and matches the behavior
// exporters and tests expect.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*model.PageRecord, []string, error) {
	if !f.robots.MayFetch(ctx, pageURL) {
		return nil, nil, errRobotsDenied
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		f.logger.Debug("skipping non-HTML content", "url", pageURL, "contentType", contentType)
		return nil, nil, nil
	}

	// Malformed HTML degrades to an empty result rather than failing
	// the page: the record is still produced with what we have.
	var parsed *ParseResult
	parser, err := NewParser(pageURL)
	if err == nil {
		parsed, err = parser.Parse(strings.NewReader(string(body)))
	}
	if err != nil || parsed == nil {
		f.logger.Warn("could not parse HTML", "url", pageURL, "error", err)
		parsed = &ParseResult{}
	}

	links := f.extractLinks(parsed.Links)

	record := &model.PageRecord{
		URL:           pageURL,
		Title:         parsed.Title,
		Description:   parsed.Description,
		StatusCode:    resp.StatusCode,
		ContentLength: len(body),
		LinksFound:    len(links),
		WordMatches:   f.searcher.Count(parsed.Text),
		Timestamp:     time.Now(),
	}

	return record, links, nil
}

// extractLinks normalizes and scope-filters the resolved hrefs from a
// page, removing duplicates while preserving discovery order. The
// order matters: it is the tie-break among same-depth frontier
// entries.
func (f *Fetcher) extractLinks(resolved []string) []string {
	seen := make(map[string]struct{}, len(resolved))
	links := make([]string, 0, len(resolved))

	for _, href := range resolved {
		normalized, err := NormalizeURL(href)
		if err != nil {
			continue
		}
		if !f.scope.Allows(normalized) {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		links = append(links, normalized)
	}

	return links
}
