// Package database provides SQLite-based persistence for crawl history.
//
// The crawl core returns a report value and holds no state of its own;
// this package is the component that gives finished runs a life beyond
// the process. Each saved run stores the full report as JSON plus a
// pages table for per-URL queries.
//
// Design decision: We use modernc.org/sqlite (pure Go) rather than
// mattn/go-sqlite3 (CGO) for easier cross-compilation and deployment.
package database
