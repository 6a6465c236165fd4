package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/pricepal/internal/model"
	"github.com/nao1215/pricepal/internal/scrape"
)

// PageFetcher requests and parses a product page.
type PageFetcher interface {
	RequestAndParse(ctx context.Context, url string, opts ...scrape.RequestOption) (*scrape.Page, error)
}

// HistoryReader reads stored state used for comparison.
type HistoryReader interface {
	LatestObservation(ctx context.Context, product string) (*model.Observation, error)
	GetSnapshot(ctx context.Context, url string) (*model.Snapshot, error)
}

// HistoryWriter persists the outcome of a run.
type HistoryWriter interface {
	SaveObservation(ctx context.Context, obs *model.Observation) error
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
}

// FetchStep requests the product page.
type FetchStep struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher PageFetcher, logger *slog.Logger) *FetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStep{fetcher: fetcher, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches report.Product.URL with the product's headers.
func (s *FetchStep) Do(ctx context.Context, report *model.TrackReport) error {
	page, err := s.fetcher.RequestAndParse(ctx, report.Product.URL,
		scrape.WithRequestHeaders(report.Product.Headers))
	if err != nil {
		var statusErr *scrape.StatusError
		if errors.As(err, &statusErr) {
			report.StatusCode = statusErr.Code
		}
		return err
	}

	report.StatusCode = page.StatusCode
	report.Doc = page.Doc
	report.PageTitle = page.Title
	report.PageHash = page.Hash
	report.FinalURL = page.FinalURL

	s.logger.Debug("fetched product page",
		"product", report.Product.Name,
		"status", page.StatusCode,
		"title", page.Title,
		"hash", page.Hash,
	)
	return nil
}

// ExtractStep reads the price from the fetched document.
type ExtractStep struct {
	logger *slog.Logger
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(logger *slog.Logger) *ExtractStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStep{logger: logger}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do sets report.Current from the price element. It is skipped when no
// document was fetched.
func (s *ExtractStep) Do(_ context.Context, report *model.TrackReport) error {
	if report.Doc == nil {
		return ErrStepSkipped
	}

	p := report.Product
	text, err := scrape.ExtractPrice(report.Doc, p.Selector, p.Attribute)
	if err != nil {
		return err
	}

	price, err := scrape.ParsePrice(text)
	if err != nil {
		return fmt.Errorf("product %s: %w", p.Name, err)
	}

	report.Current = &model.Observation{
		Product:    p.Name,
		URL:        p.URL,
		Price:      price,
		Currency:   p.Currency,
		PriceText:  text,
		StatusCode: report.StatusCode,
		Title:      report.PageTitle,
		Hash:       report.PageHash,
		ObservedAt: time.Now(),
	}

	s.logger.Debug("extracted price",
		"product", p.Name,
		"text", text,
		"price", price,
	)
	return nil
}

// CompareStep compares the current price with stored history.
type CompareStep struct {
	history HistoryReader
	logger  *slog.Logger
}

// NewCompareStep creates a CompareStep. A nil history treats every product
// as new.
func NewCompareStep(history HistoryReader, logger *slog.Logger) *CompareStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompareStep{history: history, logger: logger}
}

// Name returns the step name.
func (s *CompareStep) Name() string {
	return "compare"
}

// Do loads the previous observation and fills Change, Delta, BelowTarget
// and PageChanged. The previous observation is loaded even when no price
// was read, so failed rows still show it.
func (s *CompareStep) Do(ctx context.Context, report *model.TrackReport) error {
	if s.history != nil {
		prev, err := s.history.LatestObservation(ctx, report.Product.Name)
		if err != nil {
			return err
		}
		report.Previous = prev

		if report.PageHash != "" {
			snap, err := s.history.GetSnapshot(ctx, report.Product.URL)
			if err != nil {
				return err
			}
			report.PageChanged = snap == nil || snap.Hash != report.PageHash
		}
	} else if report.PageHash != "" {
		report.PageChanged = true
	}

	if report.Current == nil {
		report.Change = model.ChangeUnknown
		return nil
	}

	report.Change = model.Compare(report.Previous, report.Current.Price)
	if report.Previous != nil {
		report.Delta = report.Current.Price - report.Previous.Price
	}
	if report.Product.HasTarget() && report.Current.Price <= report.Product.TargetPrice {
		report.BelowTarget = true
	}

	if report.Change == model.ChangeDown || report.BelowTarget {
		s.logger.Info("price dropped",
			"product", report.Product.Name,
			"price", report.Current.Formatted(),
			"previous", report.Previous.Formatted(),
			"below_target", report.BelowTarget,
		)
	}
	return nil
}

// PersistStep saves the observation and page snapshot.
type PersistStep struct {
	store HistoryWriter
}

// NewPersistStep creates a PersistStep. A nil store makes the step a no-op.
func NewPersistStep(store HistoryWriter) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves report.Current and the page snapshot. It is skipped without a
// store or without a current observation.
func (s *PersistStep) Do(ctx context.Context, report *model.TrackReport) error {
	if s.store == nil || report.Current == nil {
		return ErrStepSkipped
	}

	if err := s.store.SaveObservation(ctx, report.Current); err != nil {
		return err
	}

	if report.PageHash != "" {
		return s.store.SaveSnapshot(ctx, &model.Snapshot{
			URL:   report.Product.URL,
			Title: report.PageTitle,
			Hash:  report.PageHash,
		})
	}
	return nil
}

// DefaultSteps returns the tracking steps in order.
func DefaultSteps(fetcher PageFetcher, db HistoryStore, logger *slog.Logger) []Step {
	var (
		reader HistoryReader
		writer HistoryWriter
	)
	if db != nil {
		reader, writer = db, db
	}
	return []Step{
		NewFetchStep(fetcher, logger),
		NewExtractStep(logger),
		NewCompareStep(reader, logger),
		NewPersistStep(writer),
	}
}

// HistoryStore reads and writes price history.
type HistoryStore interface {
	HistoryReader
	HistoryWriter
}
