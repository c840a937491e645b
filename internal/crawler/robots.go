package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
)

// maxRobotsSize caps the size of robots.txt documents we read.
const maxRobotsSize = 512 * 1024

// RobotsGate answers "may this agent fetch this URL?" using per-host
// robots.txt policies. Policies are fetched lazily on first need for a
// host and cached for the lifetime of the gate, which is one crawl.
//
// Design decision: we use temoto/robotstxt for parsing and evaluation
// rather than hand-rolling the matching rules, but we only hand it the
// body of a successful response. An unreachable or non-2xx robots.txt
// must not block crawling, so those conditions cache an allow-all
// entry (fail-open) regardless of how the library would classify the
// status code.
type RobotsGate struct {
	// client performs the robots.txt fetches.
	client *http.Client

	// userAgent is the agent string rules are evaluated against.
	userAgent string

	// respect disables the gate entirely when false.
	respect bool

	// cache maps host to parsed policy. A nil value is a cached
	// allow-all entry for hosts whose robots.txt could not be
	// retrieved or parsed.
	cache map[string]*robotstxt.RobotsData

	// logger records fetch failures and fail-open decisions.
	logger *slog.Logger
}

// NewRobotsGate creates a gate bound to one crawl. When respect is
// false, MayFetch always returns true and no network requests are made.
func NewRobotsGate(client *http.Client, userAgent string, respect bool, logger *slog.Logger) *RobotsGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsGate{
		client:    client,
		userAgent: userAgent,
		respect:   respect,
		cache:     make(map[string]*robotstxt.RobotsData),
		logger:    logger,
	}
}

// MayFetch reports whether robots.txt permits fetching the given URL.
// Structurally invalid URLs are allowed through; the scope filter has
// already rejected anything the crawler should not touch.
func (g *RobotsGate) MayFetch(ctx context.Context, rawURL string) bool {
	if !g.respect {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	host := strings.ToLower(u.Host)
	data, ok := g.cache[host]
	if !ok {
		data = g.fetchPolicy(ctx, u.Scheme, u.Host)
		g.cache[host] = data
	}

	if data == nil {
		return true
	}

	// Rules match against path plus query, so "Disallow: /search?"
	// style entries apply.
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}
	return group.Test(path)
}

// fetchPolicy retrieves and parses {scheme}://{host}/robots.txt.
// Any failure yields nil, which MayFetch treats as allow-all.
func (g *RobotsGate) fetchPolicy(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		g.logger.Warn("could not build robots.txt request, allowing all",
			"host", host, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("could not fetch robots.txt, allowing all",
			"host", host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("robots.txt not available, allowing all",
			"host", host, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		g.logger.Warn("could not read robots.txt, allowing all",
			"host", host, "error", err)
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		g.logger.Warn("could not parse robots.txt, allowing all",
			"host", host, "error", err)
		return nil
	}

	return data
}
