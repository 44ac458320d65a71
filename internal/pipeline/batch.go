package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/webharvest/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of harvesting one seed.
type BatchResult struct {
	// Seed is the URL the run was started with, as given.
	Seed string

	// Report is the harvest result. It is never nil and carries
	// partial data when the run failed midway.
	Report *model.Report

	// Err is the pipeline error for this seed, nil on success.
	Err error
}

// BatchProcessor handles concurrent harvesting of multiple seed URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-harvest execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each seed.
	// We use a factory to ensure each run gets a fresh pipeline instance.
	pipelineFactory func(seed string) *Pipeline

	// concurrency is the maximum number of concurrent harvests.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed harvests.
	// Access is synchronized via mutex.
	results []BatchResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent harvests.
// Default is 2 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each seed to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// runs and allows per-seed customization (for example site-specific
// politeness settings).
func NewBatchProcessor(pipelineFactory func(seed string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
		results:         make([]BatchResult, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch harvests multiple seed URLs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each seed gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously. Pages within one site are still fetched one at a
// time; the concurrency here is across sites.
//
// Returns a result per seed in input order, even for seeds that failed.
// The error return indicates that the batch itself was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]BatchResult, error) {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]BatchResult, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("harvesting seed",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			result := bp.runOne(ctx, seed)

			// Store result regardless of error
			// The report contains warning details if the run failed
			bp.mu.Lock()
			bp.results[i] = result
			bp.mu.Unlock()

			if result.Err != nil {
				bp.logger.Warn("harvest failed",
					"seed", seed,
					"error", result.Err,
				)
				// Don't return error to errgroup - we want to continue
				// other seeds. The error is recorded in the result.
				return nil
			}

			bp.logger.Info("harvest completed",
				"seed", seed,
			)

			return nil
		})
	}

	// Wait for all harvests to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_seeds", len(seeds),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback harvests multiple seeds and calls a callback
// for each completed run. This is useful for streaming results.
//
// The callback receives the result and the index of the seed in the
// original slice. The callback is called from the goroutine that completed
// the run, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(result BatchResult, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			callback(bp.runOne(ctx, seed), i)

			return nil
		})
	}

	return g.Wait()
}

// runOne executes a fresh pipeline for one seed.
func (bp *BatchProcessor) runOne(ctx context.Context, seed string) BatchResult {
	rep := model.NewReport(seed)
	p := bp.pipelineFactory(seed)
	err := p.Execute(ctx, rep)
	rep.FinishedAt = time.Now()

	return BatchResult{
		Seed:   seed,
		Report: rep,
		Err:    err,
	}
}
