package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pagehound/pagehound/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with a numbered block
// per crawled page and a closing summary.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose appends the full visited URL list after the summary.
	verbose bool

	// printer formats counts with thousands separators.
	printer *message.Printer
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full visited URL list.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	if len(report.Pages) == 0 {
		sb.WriteString("No pages were crawled.\n")
		w.writeSummary(&sb, report)
		return w.output.Write([]byte(sb.String()))
	}

	w.writeHeader(&sb, report)
	for i, page := range report.Pages {
		w.writePage(&sb, i+1, page)
	}
	w.writeSummary(&sb, report)

	if w.verbose {
		w.writeVisited(&sb, report)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the results banner.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "CRAWL RESULTS - %d pages crawled\n", report.PagesCrawled())
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
}

// writePage writes one numbered per-page block.
func (w *SimpleWriter) writePage(sb *strings.Builder, num int, page *model.PageRecord) {
	fmt.Fprintf(sb, "\n%d. %s\n", num, page.URL)
	fmt.Fprintf(sb, "   Title: %s\n", page.Title)

	if page.Description != "" {
		fmt.Fprintf(sb, "   Description: %s\n", truncateString(page.Description, 100))
	}

	fmt.Fprintf(sb, "   Status: %d | Size: %s bytes | Links: %d\n",
		page.StatusCode,
		w.printer.Sprintf("%d", page.ContentLength),
		page.LinksFound,
	)

	if page.HasWordMatches() {
		terms := make([]string, 0, len(page.WordMatches))
		for term := range page.WordMatches {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		matches := make([]string, 0, len(terms))
		for _, term := range terms {
			if count := page.WordMatches[term]; count > 0 {
				matches = append(matches, fmt.Sprintf("%s(%d)", term, count))
			}
		}
		fmt.Fprintf(sb, "   Word matches: %s\n", strings.Join(matches, ", "))
	}

	fmt.Fprintf(sb, "   Crawled: %s\n", page.TimestampString())
}

// writeSummary writes the closing crawl summary.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 80))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Seed:            %s\n", report.Seed)
	fmt.Fprintf(sb, "Pages crawled:   %d\n", report.PagesCrawled())
	fmt.Fprintf(sb, "URLs discovered: %d\n", report.URLsDiscovered())
	fmt.Fprintf(sb, "Duration:        %s\n", report.Duration().Round(time.Millisecond))
}

// writeVisited writes the full visited URL list.
func (w *SimpleWriter) writeVisited(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\nVisited URLs:\n")
	for _, u := range report.VisitedURLs {
		fmt.Fprintf(sb, "  %s\n", u)
	}
}
