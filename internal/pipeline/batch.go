package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/enex2md/internal/model"
)

// Factory builds the pipeline for one archive. Each archive gets its own
// pipeline, registry and output directory; the archive stream itself is
// always processed sequentially.
type Factory func(archive string) (*Pipeline, error)

// BatchProcessor converts several archives concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// factory creates a fresh pipeline for each archive.
	factory Factory

	// concurrency is the maximum number of archives converted at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores the reports in input order.
	// Access is synchronized via mutex.
	results []*model.ExportReport
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

// WithConcurrency sets the maximum number of concurrent conversions.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: 4,
		results:     make([]*model.ExportReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch converts the archive files at the given paths.
//
// A failing archive does not stop the others; its error is recorded in its
// report. The returned slice has one report per path, in input order. The
// error is non-nil only if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, archives []string) ([]*model.ExportReport, error) {
	bp.logger.Info("starting batch conversion",
		"total_archives", len(archives),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.ExportReport, len(archives))

	err := bp.run(ctx, archives, func(report *model.ExportReport, i int) {
		bp.mu.Lock()
		bp.results[i] = report
		bp.mu.Unlock()
	})

	bp.logger.Info("batch conversion complete",
		"total_archives", len(archives),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback converts the archives and calls callback with
// each report as soon as it is ready. The callback runs on the converting
// goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	archives []string,
	callback func(report *model.ExportReport, index int),
) error {
	bp.logger.Info("starting batch conversion with callback",
		"total_archives", len(archives),
		"concurrency", bp.concurrency,
	)
	return bp.run(ctx, archives, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, archives []string, done func(*model.ExportReport, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, archive := range archives {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("converting archive",
				"archive", archive,
				"index", i+1,
				"total", len(archives),
			)

			report, err := bp.convert(ctx, archive)
			done(report, i)

			if err != nil {
				// Recorded in the report; the other archives keep going.
				bp.logger.Warn("archive failed", "archive", archive, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (bp *BatchProcessor) convert(ctx context.Context, archive string) (*model.ExportReport, error) {
	p, err := bp.factory(archive)
	if err != nil {
		return failedReport(archive, fmt.Errorf("failed to prepare output: %w", err)), err
	}

	f, err := os.Open(archive) //nolint:gosec // archive paths come from the command line
	if err != nil {
		return failedReport(archive, fmt.Errorf("failed to open archive: %w", err)), err
	}
	defer f.Close()

	return p.Execute(ctx, archive, f)
}

func failedReport(archive string, err error) *model.ExportReport {
	report := model.NewExportReport(archive, "")
	report.SetError(err)
	report.Finish()
	return report
}
