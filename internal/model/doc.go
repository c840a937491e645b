// Package model defines the data structures shared across pagehound.
// It contains the per-page crawl record and the report value returned
// by a finished crawl. These types are plain data with no behavior
// beyond formatting helpers, so every other package can depend on them
// without import cycles.
package model
