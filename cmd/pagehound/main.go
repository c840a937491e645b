// Package main is the entry point for the pagehound command.
// pagehound is a polite breadth-first web crawler that collects page
// metadata, counts search terms, and exports results as CSV, JSON, or
// Markdown reports.
package main

// main is the entry point of the pagehound command.
func main() {
	Execute()
}
