package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimestampFormat is the layout used for page capture timestamps in
// CSV exports and terminal output.
const TimestampFormat = "2006-01-02 15:04:05"

// PageRecord holds everything extracted from one successfully fetched
// HTML page. A record is created once by the fetcher and never mutated
// afterwards; the spider appends records to the crawl report in
// fetch-completion order.
type PageRecord struct {
	// URL is the normalized URL the page was fetched from.
	URL string `json:"url"`

	// Title is the text of the first <title> tag, trimmed.
	// Empty when the page has no title.
	Title string `json:"title"`

	// Description is the content of meta[name=description], falling
	// back to meta[property=og:description] when absent.
	Description string `json:"description"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentLength is the byte length of the raw response body as
	// read, after the max-body-size cap was applied.
	ContentLength int `json:"content_length"`

	// LinksFound is the number of unique in-scope links discovered on
	// the page. Off-scope and duplicate links are not counted.
	LinksFound int `json:"links_found"`

	// WordMatches maps each configured search term to its
	// case-insensitive substring occurrence count in the page text.
	// Empty when no search terms were configured.
	WordMatches map[string]int `json:"word_matches,omitempty"`

	// Timestamp is when the page was captured.
	Timestamp time.Time `json:"timestamp"`
}

// WordMatchesString serializes the word match counts as a
// comma-separated "term:count" list for CSV export and terminal
// display. Terms are sorted so the output is deterministic.
func (p *PageRecord) WordMatchesString() string {
	if len(p.WordMatches) == 0 {
		return ""
	}

	terms := make([]string, 0, len(p.WordMatches))
	for term := range p.WordMatches {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, term+":"+strconv.Itoa(p.WordMatches[term]))
	}
	return strings.Join(parts, ", ")
}

// HasWordMatches reports whether any configured term occurred at least
// once on the page.
func (p *PageRecord) HasWordMatches() bool {
	for _, count := range p.WordMatches {
		if count > 0 {
			return true
		}
	}
	return false
}

// TimestampString formats the capture timestamp using TimestampFormat.
func (p *PageRecord) TimestampString() string {
	return p.Timestamp.Format(TimestampFormat)
}
