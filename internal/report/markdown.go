package report

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/pagehound/pagehound/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writePages(md, report)
	w.writeWordMatches(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the crawl overview table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Seed + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled())},
			{"URLs Discovered", strconv.Itoa(report.URLsDiscovered())},
		},
	})
	md.PlainText("")

	if report.PagesCrawled() == 0 {
		md.Warning("No pages were crawled.")
		md.PlainText("")
	}
}

// writePages writes the per-page results table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Pages) == 0 {
		return
	}

	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(report.Pages))
	for i, page := range report.Pages {
		title := page.Title
		if title == "" {
			title = "-"
		}

		rows[i] = []string{
			page.URL,
			truncateString(title, 50),
			strconv.Itoa(page.StatusCode),
			strconv.Itoa(page.ContentLength),
			strconv.Itoa(page.LinksFound),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Title", "Status", "Bytes", "Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeWordMatches writes the aggregate search term section with a
// mermaid pie chart of the term distribution.
func (w *MarkdownWriter) writeWordMatches(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.SearchTerms) == 0 {
		return
	}

	totals := make(map[string]int)
	for _, page := range report.Pages {
		for term, count := range page.WordMatches {
			totals[term] += count
		}
	}

	terms := make([]string, 0, len(totals))
	for term := range totals {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	md.H2("Search Terms")
	md.PlainText("")

	rows := make([][]string, len(terms))
	matched := 0
	for i, term := range terms {
		rows[i] = []string{term, strconv.Itoa(totals[term])}
		if totals[term] > 0 {
			matched++
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Term", "Total Occurrences"},
		Rows:   rows,
	})
	md.PlainText("")

	if matched > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Search Term Distribution"),
			piechart.WithShowData(true),
		)
		for _, term := range terms {
			if totals[term] > 0 {
				chart.LabelAndIntValue(term, uint64(totals[term]))
			}
		}

		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	} else {
		md.Note("None of the search terms occurred on any crawled page.")
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagehound](https://github.com/pagehound/pagehound)*")
}
