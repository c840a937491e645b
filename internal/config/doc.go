// Package config provides configuration structures and utilities for pagehound.
// It defines the crawl options, report generation preferences, and the
// .pagehound YAML profile file with per-host overrides.
package config
