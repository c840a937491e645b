package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pagehound/pagehound/internal/model"
)

// csvColumns is the canonical export column set, in order.
var csvColumns = []string{
	"url",
	"title",
	"description",
	"status_code",
	"content_length",
	"links_found",
	"word_matches",
	"timestamp",
}

// CSVWriter outputs page records as CSV, one row per crawled page.
// This is the canonical on-disk artifact of a crawl.
//
// The crawl core always computes link counts and word matches; the
// writer decides which columns appear. Callers that did not request
// link or search reporting can suppress the corresponding columns.
type CSVWriter struct {
	baseWriter

	// includeLinks controls the links_found column.
	includeLinks bool

	// includeWordMatches controls the word_matches column.
	includeWordMatches bool
}

// CSVWriterOption configures a CSVWriter.
type CSVWriterOption func(*CSVWriter)

// WithLinksColumn controls whether the links_found column is written.
func WithLinksColumn(include bool) CSVWriterOption {
	return func(w *CSVWriter) {
		w.includeLinks = include
	}
}

// WithWordMatchesColumn controls whether the word_matches column is written.
func WithWordMatchesColumn(include bool) CSVWriterOption {
	return func(w *CSVWriter) {
		w.includeWordMatches = include
	}
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
// All columns are included by default.
func NewCSVWriter(output io.Writer, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{
		baseWriter:         newBaseWriter(output),
		includeLinks:       true,
		includeWordMatches: true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs every page record of the report in CSV format.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(w.columns()); err != nil {
		return counter.n, err
	}

	for _, page := range report.Pages {
		if err := cw.Write(w.row(page)); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

// columns returns the header row honoring column suppression.
func (w *CSVWriter) columns() []string {
	cols := make([]string, 0, len(csvColumns))
	for _, c := range csvColumns {
		if c == "links_found" && !w.includeLinks {
			continue
		}
		if c == "word_matches" && !w.includeWordMatches {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// row serializes one page record in column order.
func (w *CSVWriter) row(page *model.PageRecord) []string {
	row := []string{
		page.URL,
		page.Title,
		page.Description,
		strconv.Itoa(page.StatusCode),
		strconv.Itoa(page.ContentLength),
	}
	if w.includeLinks {
		row = append(row, strconv.Itoa(page.LinksFound))
	}
	if w.includeWordMatches {
		row = append(row, page.WordMatchesString())
	}
	return append(row, page.TimestampString())
}

// countingWriter counts bytes passing through to the wrapped writer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
