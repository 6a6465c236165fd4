package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/pricepal/internal/model"
)

func products(n int) []model.Product {
	result := make([]model.Product, n)
	for i := range result {
		result[i] = model.Product{Name: fmt.Sprintf("product-%d", i)}
	}
	return result
}

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := quietPipeline()
			p.AddStep(&mockStep{name: "price", doFunc: func(_ context.Context, r *model.TrackReport) error {
				// Later products finish first.
				var idx int
				_, _ = fmt.Sscanf(r.Product.Name, "product-%d", &idx)
				time.Sleep(time.Duration(10-idx) * time.Millisecond)
				r.Current = &model.Observation{Price: float64(idx)}
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, WithConcurrency(5), WithBatchLogger(slog.New(slog.DiscardHandler)))
		reports, err := bp.ProcessBatch(context.Background(), products(10))
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		for i, r := range reports {
			if r.Product.Name != fmt.Sprintf("product-%d", i) || r.Current.Price != float64(i) {
				t.Errorf("report %d is for %s", i, r.Product.Name)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		factory := func() *Pipeline {
			p := quietPipeline()
			p.AddStep(&mockStep{name: "slow", doFunc: func(context.Context, *model.TrackReport) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, WithConcurrency(2), WithBatchLogger(slog.New(slog.DiscardHandler)))
		if _, err := bp.ProcessBatch(context.Background(), products(8)); err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if got := peak.Load(); got > 2 {
			t.Errorf("peak concurrency = %d, want <= 2", got)
		}
	})

	t.Run("failures stay in reports", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		factory := func() *Pipeline {
			p := quietPipeline()
			p.AddStep(&mockStep{name: "fail", doFunc: func(_ context.Context, r *model.TrackReport) error {
				if r.Product.Name == "product-1" {
					return boom
				}
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, WithBatchLogger(slog.New(slog.DiscardHandler)))
		reports, err := bp.ProcessBatch(context.Background(), products(3))
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if !errors.Is(reports[1].Error, boom) {
			t.Errorf("expected boom in report 1, got %v", reports[1].Error)
		}
		if reports[0].Error != nil || reports[2].Error != nil {
			t.Error("other products should succeed")
		}
	})

	t.Run("cancelled context fills timed-out reports", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func() *Pipeline { return quietPipeline() }, WithBatchLogger(slog.New(slog.DiscardHandler)))
		reports, err := bp.ProcessBatch(ctx, products(3))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		for i, r := range reports {
			if r == nil || !r.TimedOut {
				t.Errorf("report %d should be timed out: %+v", i, r)
			}
		}
	})
}

func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]string)

	bp := NewBatchProcessor(func() *Pipeline { return quietPipeline() }, WithBatchLogger(slog.New(slog.DiscardHandler)))
	err := bp.ProcessBatchWithCallback(context.Background(), products(4), func(r *model.TrackReport, index int) {
		mu.Lock()
		defer mu.Unlock()
		seen[index] = r.Product.Name
	})
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback() error = %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("callback called %d times, want 4", len(seen))
	}
	for i, name := range seen {
		if name != fmt.Sprintf("product-%d", i) {
			t.Errorf("index %d got %s", i, name)
		}
	}
}
