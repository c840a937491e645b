package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent processing of multiple seed URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
// Only the scheduling is concurrent: every individual crawl keeps its
// one-fetch-at-a-time politeness.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-job execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each job.
	// We use a factory to ensure each job gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrently crawled seeds.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each job to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak
// between jobs and allows for per-job customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     10,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls multiple seeds concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each seed gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Every job retains its result even when other jobs fail; a failed job
// records its error on the job itself. The error return indicates
// cancellation of the batch as a whole.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) error {
	bp.logger.Info("starting batch processing",
		"totalSeeds", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling seed",
				"seed", job.Seed,
				"index", i+1,
				"total", len(jobs),
			)

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, job); err != nil {
				job.Err = err
				bp.logger.Warn("crawl job failed",
					"seed", job.Seed,
					"error", err,
				)
				// Other seeds keep running; the error lives on the job.
				return nil
			}

			bp.logger.Info("crawl job completed", "seed", job.Seed)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"totalSeeds", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return err
}

// ProcessBatchWithCallback crawls multiple seeds and calls a callback
// for each completed job. This is useful for streaming results.
//
// The callback receives the job and its index in the original slice.
// It is called from the goroutine that completed the job, so it must
// be safe for concurrent use if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []*Job,
	callback func(job *Job, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"totalSeeds", len(jobs),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, job); err != nil {
				job.Err = err
			}

			callback(job, i)
			return nil
		})
	}

	return g.Wait()
}
