package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pricepal/internal/model"
)

// DefaultConcurrency is the number of products tracked at once when no
// concurrency is configured.
const DefaultConcurrency = 4

// BatchProcessor tracks many products concurrently.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each product.
	pipelineFactory func() *Pipeline

	concurrency int

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

// WithConcurrency sets the maximum number of products tracked at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch tracks products concurrently and returns one report per
// product in input order. Products not started before ctx is cancelled get a
// timed-out report. The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, products []model.Product) ([]*model.TrackReport, error) {
	bp.logger.Info("starting batch",
		"products", len(products),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.TrackReport, len(products))

	err := bp.run(ctx, products, func(report *model.TrackReport, index int) {
		results[index] = report
	})

	for i, r := range results {
		if r == nil {
			r = model.NewTrackReport(products[i])
			r.TimedOut = true
			r.SetError(context.Cause(ctx))
			results[i] = r
		}
	}

	bp.logger.Info("batch complete",
		"products", len(products),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return results, err
}

// ProcessBatchWithCallback tracks products and calls callback as each one
// completes. The callback runs on the worker goroutine and must be safe for
// concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	products []model.Product,
	callback func(report *model.TrackReport, index int),
) error {
	return bp.run(ctx, products, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	products []model.Product,
	callback func(report *model.TrackReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, product := range products {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("tracking product",
				"product", product.Name,
				"index", i+1,
				"total", len(products),
			)

			report := model.NewTrackReport(product)
			if err := bp.pipelineFactory().Execute(ctx, report); err != nil {
				bp.logger.Warn("tracking failed", "product", product.Name, "error", err)
			}

			// Pipeline errors live in the report; returning nil keeps the
			// other products running.
			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
