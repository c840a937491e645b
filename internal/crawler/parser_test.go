package crawler

import (
	"strings"
	"testing"
)

// TestParser tests HTML metadata and link extraction.
func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>  Test Page  </title></head><body></body></html>`
		parser, err := NewParser("https://example.com/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", result.Title)
		}
	})

	t.Run("first title wins", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>First</title><title>Second</title></head></html>`
		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Title != "First" {
			t.Errorf("expected first title, got %q", result.Title)
		}
	})

	t.Run("prefers meta description over og:description", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<meta property="og:description" content="OpenGraph text">
			<meta name="description" content="Plain description">
		</head></html>`
		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Description != "Plain description" {
			t.Errorf("expected plain description, got %q", result.Description)
		}
	})

	t.Run("falls back to og:description", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:description" content="OpenGraph text"></head></html>`
		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Description != "OpenGraph text" {
			t.Errorf("expected og:description fallback, got %q", result.Description)
		}
	})

	t.Run("resolves relative links against the page URL", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="/absolute">A</a>
			<a href="relative">B</a>
			<a href="../up">C</a>
			<a href="https://other.org/full">D</a>
		</body></html>`
		parser, err := NewParser("https://example.com/dir/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		want := []string{
			"https://example.com/absolute",
			"https://example.com/dir/relative",
			"https://example.com/up",
			"https://other.org/full",
		}
		if len(result.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(result.Links), result.Links)
		}
		for i, link := range want {
			if result.Links[i] != link {
				t.Errorf("link[%d] = %q, want %q", i, result.Links[i], link)
			}
		}
	})

	t.Run("skips anchors without usable href", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a>No href</a>
			<a href="">Empty</a>
			<a href="#">Hash</a>
			<a href="javascript:void(0)">JS</a>
			<a href="mailto:a@b.com">Mail</a>
			<a href="tel:+123">Tel</a>
			<a href="/keep">Keep</a>
		</body></html>`
		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 1 {
			t.Fatalf("expected 1 link, got %d: %v", len(result.Links), result.Links)
		}
		if result.Links[0] != "https://example.com/keep" {
			t.Errorf("unexpected link %q", result.Links[0])
		}
	})

	t.Run("collects text content", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><h1>Heading</h1><p>Body text here.</p></body></html>`
		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if !strings.Contains(result.Text, "Heading") || !strings.Contains(result.Text, "Body text here.") {
			t.Errorf("expected text content, got %q", result.Text)
		}
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><a href="/ok">unclosed <div><p>text`
		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("expected graceful parse, got error: %v", err)
		}

		if len(result.Links) != 1 {
			t.Errorf("expected 1 link from malformed markup, got %d", len(result.Links))
		}
	})

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()

		if _, err := NewParser("://invalid"); err == nil {
			t.Error("expected error for invalid base URL")
		}
	})
}
