package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/nao1215/pricepal/internal/database"
	"github.com/nao1215/pricepal/internal/model"
	"github.com/nao1215/pricepal/internal/scrape"
)

const kettlePage = `<html><head><title>Kettle</title></head>
<body><span class="price">$79.50</span><meta itemprop="price" content="79.50"></body></html>`

func newShop(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/kettle", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(kettlePage))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/region", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "region=ca" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(kettlePage))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// memStore is an in-memory HistoryStore.
type memStore struct {
	mu           sync.Mutex
	observations map[string][]*model.Observation
	snapshots    map[string]*model.Snapshot
}

func newMemStore() *memStore {
	return &memStore{
		observations: make(map[string][]*model.Observation),
		snapshots:    make(map[string]*model.Snapshot),
	}
}

func (m *memStore) LatestObservation(_ context.Context, product string) (*model.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obs := m.observations[product]
	if len(obs) == 0 {
		return nil, nil
	}
	return obs[len(obs)-1], nil
}

func (m *memStore) GetSnapshot(_ context.Context, url string) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[url], nil
}

func (m *memStore) SaveObservation(_ context.Context, obs *model.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations[obs.Product] = append(m.observations[obs.Product], obs)
	return nil
}

func (m *memStore) SaveSnapshot(_ context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.URL] = snap
	return nil
}

func trackingPipeline(srv *httptest.Server, store HistoryStore) *Pipeline {
	logger := slog.New(slog.DiscardHandler)
	fetcher := scrape.NewFetcher(srv.Client(), scrape.WithLogger(logger))
	p := New(WithLogger(logger), WithContinueOnError(true))
	p.AddSteps(DefaultSteps(fetcher, store, logger)...)
	return p
}

func TestTrackingSteps(t *testing.T) {
	t.Parallel()

	srv := newShop(t)

	t.Run("first observation is new and persisted", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		product := model.Product{Name: "Kettle", URL: srv.URL + "/kettle", Selector: ".price", Currency: "USD"}
		report := model.NewTrackReport(product)

		if err := trackingPipeline(srv, store).Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if report.Error != nil {
			t.Fatalf("report error = %v", report.Error)
		}
		if report.Current == nil || report.Current.Price != 79.5 || report.Current.PriceText != "$79.50" {
			t.Fatalf("unexpected current observation %+v", report.Current)
		}
		if report.Change != model.ChangeNew || !report.PageChanged {
			t.Errorf("Change = %v, PageChanged = %v", report.Change, report.PageChanged)
		}
		if report.Current.Title != "Kettle" || report.Current.Hash == "" || report.Current.StatusCode != http.StatusOK {
			t.Errorf("page details missing from observation: %+v", report.Current)
		}
		if len(store.observations["Kettle"]) != 1 || store.snapshots[product.URL] == nil {
			t.Error("observation and snapshot should be persisted")
		}
		if len(report.PerformedSteps) != 4 {
			t.Errorf("PerformedSteps = %v", report.PerformedSteps)
		}
	})

	t.Run("price drop below target", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		product := model.Product{
			Name: "Kettle", URL: srv.URL + "/kettle", Selector: `meta[itemprop="price"]`,
			Attribute: "content", Currency: "USD", TargetPrice: 80,
		}
		_ = store.SaveObservation(context.Background(), &model.Observation{Product: "Kettle", Price: 92, Currency: "USD"})

		report := model.NewTrackReport(product)
		if err := trackingPipeline(srv, store).Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if report.Change != model.ChangeDown || report.Delta != -12.5 || !report.BelowTarget {
			t.Errorf("Change = %v, Delta = %v, BelowTarget = %v", report.Change, report.Delta, report.BelowTarget)
		}
		if report.Status() != "target" {
			t.Errorf("Status() = %q", report.Status())
		}
	})

	t.Run("unchanged page is detected", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		product := model.Product{Name: "Kettle", URL: srv.URL + "/kettle", Selector: ".price", Currency: "USD"}
		p := trackingPipeline(srv, store)

		_ = p.Execute(context.Background(), model.NewTrackReport(product))
		second := model.NewTrackReport(product)
		_ = p.Execute(context.Background(), second)

		if second.Change != model.ChangeUnchanged || second.PageChanged {
			t.Errorf("Change = %v, PageChanged = %v", second.Change, second.PageChanged)
		}
	})

	t.Run("client error keeps previous price and skips extraction", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		_ = store.SaveObservation(context.Background(), &model.Observation{Product: "Gone", Price: 10, Currency: "USD"})
		product := model.Product{Name: "Gone", URL: srv.URL + "/gone", Selector: ".price", Currency: "USD"}

		report := model.NewTrackReport(product)
		if err := trackingPipeline(srv, store).Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !errors.Is(report.Error, scrape.ErrClientStatus) {
			t.Errorf("expected ErrClientStatus, got %v", report.Error)
		}
		if report.StatusCode != http.StatusGone {
			t.Errorf("StatusCode = %d", report.StatusCode)
		}
		if report.Previous == nil || report.Previous.Price != 10 {
			t.Errorf("previous observation not loaded: %+v", report.Previous)
		}
		if report.Current != nil || report.Status() != "error" {
			t.Errorf("Current = %+v, Status = %q", report.Current, report.Status())
		}
		if len(store.observations["Gone"]) != 1 {
			t.Error("nothing new should be persisted")
		}
	})

	t.Run("selector miss is an error", func(t *testing.T) {
		t.Parallel()

		product := model.Product{Name: "Kettle", URL: srv.URL + "/kettle", Selector: ".sale-price", Currency: "USD"}
		report := model.NewTrackReport(product)
		_ = trackingPipeline(srv, newMemStore()).Execute(context.Background(), report)

		if !errors.Is(report.Error, scrape.ErrSelectorNotFound) {
			t.Errorf("expected ErrSelectorNotFound, got %v", report.Error)
		}
	})

	t.Run("product headers are sent", func(t *testing.T) {
		t.Parallel()

		product := model.Product{
			Name: "Regional", URL: srv.URL + "/region", Selector: ".price", Currency: "CAD",
			Headers: map[string]string{"Cookie": "region=ca"},
		}
		report := model.NewTrackReport(product)
		_ = trackingPipeline(srv, nil).Execute(context.Background(), report)

		if report.Error != nil || report.Current == nil {
			t.Fatalf("report error = %v", report.Error)
		}
		if report.Current.Currency != "CAD" {
			t.Errorf("Currency = %q", report.Current.Currency)
		}
	})

	t.Run("nil store skips persistence", func(t *testing.T) {
		t.Parallel()

		product := model.Product{Name: "Kettle", URL: srv.URL + "/kettle", Selector: ".price", Currency: "USD"}
		report := model.NewTrackReport(product)
		_ = trackingPipeline(srv, nil).Execute(context.Background(), report)

		want := []string{"fetch", "extract", "compare"}
		if len(report.PerformedSteps) != len(want) {
			t.Errorf("PerformedSteps = %v, want %v", report.PerformedSteps, want)
		}
		if report.Change != model.ChangeNew {
			t.Errorf("Change = %v", report.Change)
		}
	})
}

func TestTrackingSteps_PriceDB(t *testing.T) {
	t.Parallel()

	srv := newShop(t)
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	product := model.Product{Name: "Kettle", URL: srv.URL + "/kettle", Selector: ".price", Currency: "USD"}
	p := trackingPipeline(srv, db)

	for range 2 {
		if err := p.Execute(context.Background(), model.NewTrackReport(product)); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	history, err := db.History(context.Background(), "Kettle", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 observations, got %d", len(history))
	}
	snap, err := db.GetSnapshot(context.Background(), product.URL)
	if err != nil || snap == nil || snap.Title != "Kettle" {
		t.Errorf("GetSnapshot() = %+v, %v", snap, err)
	}
}
