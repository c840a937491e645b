package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	if c.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", c.MaxDepth, DefaultMaxDepth)
	}
	if c.MaxPages != DefaultMaxPages {
		t.Errorf("MaxPages = %d, want %d", c.MaxPages, DefaultMaxPages)
	}
	if c.Delay != DefaultDelay {
		t.Errorf("Delay = %v, want %v", c.Delay, DefaultDelay)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
	if !c.RespectRobots {
		t.Error("RespectRobots = false, want true")
	}
	if c.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", c.UserAgent, DefaultUserAgent)
	}
	if c.MaxBodySize != DefaultMaxBodySize {
		t.Errorf("MaxBodySize = %d, want %d", c.MaxBodySize, DefaultMaxBodySize)
	}
	if c.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", c.BatchSize, DefaultBatchSize)
	}
	if !c.SaveToDB {
		t.Error("SaveToDB = false, want true")
	}
}

// TestConfigValidate exercises every validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		c := NewConfig()
		c.Seeds = []string{"http://example.com"}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "no seeds",
			mutate:  func(c *Config) { c.Seeds = nil },
			wantErr: ErrNoSeed,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative depth",
			mutate:  func(c *Config) { c.MaxDepth = -1 },
			wantErr: ErrInvalidDepth,
		},
		{
			name:    "depth zero is allowed",
			mutate:  func(c *Config) { c.MaxDepth = 0 },
			wantErr: nil,
		},
		{
			name:    "zero max pages",
			mutate:  func(c *Config) { c.MaxPages = 0 },
			wantErr: ErrInvalidMaxPages,
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Delay = -time.Second },
			wantErr: ErrInvalidDelay,
		},
		{
			name:    "zero delay is allowed",
			mutate:  func(c *Config) { c.Delay = 0 },
			wantErr: nil,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name: "json and markdown conflict",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "negative max body size",
			mutate:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid()
			tt.mutate(c)

			err := c.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfigFile tests YAML profile loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads site profiles", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `
defaults:
  delay: 2s
sites:
  example.com:
    depth: 5
    maxPages: 50
    userAgent: "custom-agent/1.0"
    searchTerms:
      - gopher
      - crawler
  slow.example.org:
    delay: 10s
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		sc := cf.GetSiteConfig("example.com")
		if sc.Depth != 5 {
			t.Errorf("Depth = %d, want 5", sc.Depth)
		}
		if sc.MaxPages != 50 {
			t.Errorf("MaxPages = %d, want 50", sc.MaxPages)
		}
		if sc.UserAgent != "custom-agent/1.0" {
			t.Errorf("UserAgent = %q", sc.UserAgent)
		}
		if len(sc.SearchTerms) != 2 {
			t.Errorf("SearchTerms = %v", sc.SearchTerms)
		}
		// The defaults delay applies to hosts without their own.
		if time.Duration(sc.Delay) != 2*time.Second {
			t.Errorf("Delay = %v, want 2s", time.Duration(sc.Delay))
		}

		slow := cf.GetSiteConfig("slow.example.org")
		if time.Duration(slow.Delay) != 10*time.Second {
			t.Errorf("Delay = %v, want 10s", time.Duration(slow.Delay))
		}
	})

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := "defaults:\n  depth: 3\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		sc := cf.GetSiteConfig("nowhere.invalid")
		if sc.Depth != 3 {
			t.Errorf("Depth = %d, want 3 from defaults", sc.Depth)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})
}

// TestFindConfigFile tests the configuration file search order.
func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profiles.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q", path, got)
		}
	})

	t.Run("missing explicit path returns empty", func(t *testing.T) {
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})

	t.Run("finds file in current directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		if filepath.Base(got) != DefaultConfigFile {
			t.Errorf("FindConfigFile(\"\") = %q", got)
		}
	})
}

// TestSiteConfigApply tests merging a profile into the global config.
func TestSiteConfigApply(t *testing.T) {
	t.Parallel()

	base := NewConfig()
	base.Seeds = []string{"http://example.com"}

	sc := SiteConfig{
		Depth:     7,
		Delay:     Duration(3 * time.Second),
		UserAgent: "special/2.0",
	}

	merged := sc.Apply(base)

	if merged.MaxDepth != 7 {
		t.Errorf("MaxDepth = %d, want 7", merged.MaxDepth)
	}
	if merged.Delay != 3*time.Second {
		t.Errorf("Delay = %v, want 3s", merged.Delay)
	}
	if merged.UserAgent != "special/2.0" {
		t.Errorf("UserAgent = %q", merged.UserAgent)
	}
	// Fields without overrides keep global values.
	if merged.MaxPages != base.MaxPages {
		t.Errorf("MaxPages = %d, want %d", merged.MaxPages, base.MaxPages)
	}
	// The original config is untouched.
	if base.MaxDepth != DefaultMaxDepth {
		t.Errorf("base mutated: MaxDepth = %d", base.MaxDepth)
	}
}
