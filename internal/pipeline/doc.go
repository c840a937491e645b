// Package pipeline provides a framework for executing crawl job steps
// in sequence.
//
// A job carries one seed through its stages: crawling, database
// persistence, and CSV export. Each stage is implemented as a Step that
// receives the job and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running crawls
//
// The pipeline supports both individual jobs and batch processing with
// concurrency control using errgroup. Concurrency exists only between
// seeds; each crawl remains strictly sequential internally.
package pipeline
