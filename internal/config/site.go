package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so profiles can use human-readable
// values like "2s" or "500ms". yaml.v3 has no built-in duration
// decoding.
type Duration time.Duration

// UnmarshalYAML decodes a duration from its string form.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML encodes the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// SiteConfig holds per-host overrides for crawl behavior.
// Keys in the profile file are hostnames, so one .pagehound file can
// tune depth and politeness for every site an operator crawls.
type SiteConfig struct {
	// Depth overrides the global crawl depth for this host.
	// If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page budget for this host.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Delay overrides the politeness delay for this host.
	// If zero, the global Delay is used.
	Delay Duration `yaml:"delay,omitempty"`

	// UserAgent overrides the User-Agent header for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// SearchTerms overrides the global search term list for this host.
	SearchTerms []string `yaml:"searchTerms,omitempty"`
}

// File represents the structure of the .pagehound configuration file.
type File struct {
	// Sites maps hostnames to their crawl overrides.
	// Keys are bare hostnames without a scheme (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all hosts unless a
	// site-specific entry replaces them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the profile for a specific host.
// It merges the host-specific entry with the file's defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Depth != 0 {
			result.Depth = siteConfig.Depth
		}
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if siteConfig.Delay != 0 {
			result.Delay = siteConfig.Delay
		}
		if siteConfig.UserAgent != "" {
			result.UserAgent = siteConfig.UserAgent
		}
		if len(siteConfig.SearchTerms) > 0 {
			result.SearchTerms = siteConfig.SearchTerms
		}
	}

	return result
}

// Apply returns a copy of the global config with this profile's
// overrides applied. The receiver is not modified.
func (sc SiteConfig) Apply(c *Config) *Config {
	merged := *c

	if sc.Depth != 0 {
		merged.MaxDepth = sc.Depth
	}
	if sc.MaxPages != 0 {
		merged.MaxPages = sc.MaxPages
	}
	if sc.Delay != 0 {
		merged.Delay = time.Duration(sc.Delay)
	}
	if sc.UserAgent != "" {
		merged.UserAgent = sc.UserAgent
	}
	if len(sc.SearchTerms) > 0 {
		merged.SearchTerms = sc.SearchTerms
	}

	return &merged
}
