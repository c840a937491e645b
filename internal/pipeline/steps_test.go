package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pagehound/pagehound/internal/database"
	"github.com/pagehound/pagehound/internal/model"
)

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("fills the job report", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><title>Start</title></head><body><a href="/next">next</a></body></html>`)
		}))
		defer server.Close()

		job := testJob(server.URL)
		job.Config.MaxDepth = 0
		job.Config.Delay = 0
		job.Config.RespectRobots = false

		step := NewCrawlStep(server.Client(), testLogger())
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		if job.Report == nil {
			t.Fatal("job report not set")
		}
		if job.Report.PagesCrawled() != 1 {
			t.Errorf("PagesCrawled() = %d, want 1", job.Report.PagesCrawled())
		}
		if job.Report.Pages[0].Title != "Start" {
			t.Errorf("Title = %q, want %q", job.Report.Pages[0].Title, "Start")
		}
	})

	t.Run("invalid seed fails the step", func(t *testing.T) {
		t.Parallel()

		job := testJob("")
		step := NewCrawlStep(http.DefaultClient, testLogger())

		if err := step.Do(context.Background(), job); err == nil {
			t.Error("Do() error = nil, want error for invalid seed")
		}
	})

	t.Run("cancellation keeps partial results", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`)
		}))
		defer server.Close()

		job := testJob(server.URL)
		job.Config.Delay = time.Hour
		job.Config.RespectRobots = false

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		step := NewCrawlStep(server.Client(), testLogger())
		if err := step.Do(ctx, job); err != nil {
			t.Fatalf("Do() error = %v, want nil for interrupted crawl", err)
		}

		if job.Report == nil || job.Report.PagesCrawled() != 1 {
			t.Errorf("partial report not preserved: %+v", job.Report)
		}
	})
}

func TestPersistStep(t *testing.T) {
	t.Parallel()

	t.Run("saves the report and records the run ID", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })

		job := testJob("http://example.com")
		job.Config.SaveToDB = true
		job.Report = &model.CrawlReport{
			Seed:        "http://example.com",
			StartedAt:   time.Now().UTC(),
			FinishedAt:  time.Now().UTC(),
			Pages:       []*model.PageRecord{{URL: "http://example.com", StatusCode: 200}},
			VisitedURLs: []string{"http://example.com"},
		}

		step := NewPersistStep(db, testLogger())
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		if job.RunID <= 0 {
			t.Errorf("RunID = %d, want > 0", job.RunID)
		}

		stored, err := db.GetReportByID(context.Background(), job.RunID)
		if err != nil {
			t.Fatalf("failed to load stored report: %v", err)
		}
		if stored == nil || stored.Seed != "http://example.com" {
			t.Errorf("stored report = %+v", stored)
		}
	})

	t.Run("skips when persistence is disabled", func(t *testing.T) {
		t.Parallel()

		job := testJob("http://example.com")
		job.Report = &model.CrawlReport{Seed: "http://example.com"}

		step := NewPersistStep(nil, testLogger())
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if job.RunID != 0 {
			t.Errorf("RunID = %d, want 0", job.RunID)
		}
	})
}

func TestExportStep(t *testing.T) {
	t.Parallel()

	exportReport := func() *model.CrawlReport {
		return &model.CrawlReport{
			Seed: "http://example.com",
			Pages: []*model.PageRecord{
				{
					URL:         "http://example.com",
					Title:       "Home",
					StatusCode:  200,
					WordMatches: map[string]int{"cat": 1},
					Timestamp:   time.Now(),
				},
			},
			VisitedURLs: []string{"http://example.com"},
			SearchTerms: []string{"cat"},
		}
	}

	t.Run("writes CSV with word matches when terms configured", func(t *testing.T) {
		t.Parallel()

		job := testJob("http://example.com")
		job.Config.SearchTerms = []string{"cat"}
		job.OutputPath = filepath.Join(t.TempDir(), "out", "results.csv")
		job.Report = exportReport()

		step := NewExportStep(testLogger())
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		f, err := os.Open(job.OutputPath)
		if err != nil {
			t.Fatalf("export file not created: %v", err)
		}
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse export: %v", err)
		}
		if !strings.Contains(strings.Join(records[0], ","), "word_matches") {
			t.Errorf("header missing word_matches: %v", records[0])
		}
		if len(records) != 2 {
			t.Errorf("got %d records, want 2", len(records))
		}
	})

	t.Run("suppresses word matches without terms", func(t *testing.T) {
		t.Parallel()

		job := testJob("http://example.com")
		job.OutputPath = filepath.Join(t.TempDir(), "results.csv")
		job.Report = exportReport()

		step := NewExportStep(testLogger())
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		data, err := os.ReadFile(job.OutputPath)
		if err != nil {
			t.Fatalf("export file not created: %v", err)
		}
		if strings.Contains(string(data), "word_matches") {
			t.Errorf("word_matches column present without search terms:\n%s", data)
		}
	})

	t.Run("skips without an output path", func(t *testing.T) {
		t.Parallel()

		job := testJob("http://example.com")
		job.OutputPath = ""
		job.Report = exportReport()

		step := NewExportStep(testLogger())
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
	})
}
