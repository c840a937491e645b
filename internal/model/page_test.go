package model

import (
	"testing"
	"time"
)

// TestWordMatchesString tests serialization of word match counts.
func TestWordMatchesString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		matches map[string]int
		want    string
	}{
		{"empty map", nil, ""},
		{"single term", map[string]int{"cat": 3}, "cat:3"},
		{"sorted terms", map[string]int{"zebra": 1, "apple": 2}, "apple:2, zebra:1"},
		{"zero counts included", map[string]int{"dog": 0, "cat": 5}, "cat:5, dog:0"},
		{"multi word phrase", map[string]int{"open source": 2}, "open source:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &PageRecord{WordMatches: tt.matches}
			if got := p.WordMatchesString(); got != tt.want {
				t.Errorf("WordMatchesString() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestHasWordMatches tests detection of non-zero match counts.
func TestHasWordMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		matches map[string]int
		want    bool
	}{
		{"nil map", nil, false},
		{"all zero", map[string]int{"cat": 0, "dog": 0}, false},
		{"one non-zero", map[string]int{"cat": 0, "dog": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &PageRecord{WordMatches: tt.matches}
			if got := p.HasWordMatches(); got != tt.want {
				t.Errorf("HasWordMatches() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestTimestampString tests the capture timestamp layout.
func TestTimestampString(t *testing.T) {
	t.Parallel()

	p := &PageRecord{Timestamp: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
	if got := p.TimestampString(); got != "2025-03-14 09:26:53" {
		t.Errorf("TimestampString() = %q", got)
	}
}

// TestCrawlReport tests the report accessors.
func TestCrawlReport(t *testing.T) {
	t.Parallel()

	started := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	report := &CrawlReport{
		Seed:      "https://example.com",
		StartedAt: started,
		FinishedAt: started.Add(42 * time.Second),
		Pages: []*PageRecord{
			{URL: "https://example.com"},
			{URL: "https://example.com/about"},
		},
		VisitedURLs: []string{
			"https://example.com",
			"https://example.com/about",
			"https://example.com/broken",
		},
	}

	if got := report.PagesCrawled(); got != 2 {
		t.Errorf("PagesCrawled() = %d, want 2", got)
	}
	if got := report.URLsDiscovered(); got != 3 {
		t.Errorf("URLsDiscovered() = %d, want 3", got)
	}
	if got := report.Duration(); got != 42*time.Second {
		t.Errorf("Duration() = %v, want 42s", got)
	}
}
