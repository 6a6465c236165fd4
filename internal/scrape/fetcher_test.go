package scrape

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const productHTML = `<!DOCTYPE html>
<html>
<head><title> Kettle 1.7L </title></head>
<body>
  <h1>Kettle</h1>
  <span class="price">$1,299.99</span>
  <meta itemprop="price" content="1299.99">
</body>
</html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(productHTML))
	})
	mux.HandleFunc("/accepted", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`<p>queued</p>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/agent", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>" + r.UserAgent() + "</p>"))
	})
	mux.HandleFunc("/headers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p id="lang">` + r.Header.Get("Accept-Language") + `</p><p id="cookie">` + r.Header.Get("Cookie") + `</p>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRequestAndParse(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	t.Run("200 is parsed", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		f := NewFetcher(srv.Client(), WithLogger(logger))

		page, err := f.RequestAndParse(context.Background(), srv.URL+"/ok")
		if err != nil {
			t.Fatalf("RequestAndParse() error = %v", err)
		}
		if page.StatusCode != http.StatusOK || page.Class != ClassOK {
			t.Errorf("status = %d class = %v", page.StatusCode, page.Class)
		}
		if page.Title != "Kettle 1.7L" {
			t.Errorf("Title = %q", page.Title)
		}
		if !strings.HasPrefix(page.ContentType, "text/html") {
			t.Errorf("ContentType = %q", page.ContentType)
		}
		if page.Hash != ContentHash([]byte(productHTML)) {
			t.Errorf("Hash = %q", page.Hash)
		}
		if !strings.Contains(logs.String(), "response code is OK") {
			t.Errorf("expected OK debug log, got: %s", logs.String())
		}
	})

	t.Run("other 2xx is parsed", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		f := NewFetcher(srv.Client(), WithLogger(logger))

		page, err := f.RequestAndParse(context.Background(), srv.URL+"/accepted")
		if err != nil {
			t.Fatalf("RequestAndParse() error = %v", err)
		}
		if page.Class != ClassSuccess {
			t.Errorf("Class = %v, want success", page.Class)
		}
		if got := page.Doc.Find("p").Text(); got != "queued" {
			t.Errorf("p = %q", got)
		}
		if !strings.Contains(logs.String(), "unexpected but not critical") {
			t.Errorf("expected unexpected-status debug log, got: %s", logs.String())
		}
	})

	t.Run("4xx is a client status error", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		f := NewFetcher(srv.Client(), WithLogger(logger))

		page, err := f.RequestAndParse(context.Background(), srv.URL+"/missing")
		if page != nil {
			t.Error("expected nil page")
		}
		if !errors.Is(err, ErrClientStatus) {
			t.Fatalf("expected ErrClientStatus, got %v", err)
		}
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusNotFound {
			t.Errorf("expected StatusError with 404, got %v", err)
		}
		if !strings.Contains(logs.String(), "level=WARN") {
			t.Errorf("expected warning log, got: %s", logs.String())
		}
	})

	t.Run("5xx is unclassified", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(srv.Client(), WithLogger(slog.New(slog.DiscardHandler)))
		_, err := f.RequestAndParse(context.Background(), srv.URL+"/broken")
		if !errors.Is(err, ErrUnclassifiedStatus) {
			t.Fatalf("expected ErrUnclassifiedStatus, got %v", err)
		}
	})

	t.Run("unfollowed redirect is unclassified", func(t *testing.T) {
		t.Parallel()

		client := srv.Client()
		noRedirect := *client
		noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

		f := NewFetcher(&noRedirect, WithLogger(slog.New(slog.DiscardHandler)))
		_, err := f.RequestAndParse(context.Background(), srv.URL+"/moved")

		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusMovedPermanently || se.Class != ClassUnclassified {
			t.Fatalf("expected unclassified 301, got %v", err)
		}
	})

	t.Run("followed redirect records final url", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(srv.Client(), WithLogger(slog.New(slog.DiscardHandler)))
		page, err := f.RequestAndParse(context.Background(), srv.URL+"/moved")
		if err != nil {
			t.Fatalf("RequestAndParse() error = %v", err)
		}
		if page.URL != srv.URL+"/moved" || page.FinalURL != srv.URL+"/ok" {
			t.Errorf("URL = %q FinalURL = %q", page.URL, page.FinalURL)
		}
	})

	t.Run("user agent is sent", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(srv.Client(), WithUserAgent("PricePal/test"), WithLogger(slog.New(slog.DiscardHandler)))
		page, err := f.RequestAndParse(context.Background(), srv.URL+"/agent")
		if err != nil {
			t.Fatalf("RequestAndParse() error = %v", err)
		}
		if got := page.Doc.Find("p").Text(); got != "PricePal/test" {
			t.Errorf("User-Agent = %q", got)
		}
	})

	t.Run("request headers are sent", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(srv.Client(), WithLogger(slog.New(slog.DiscardHandler)))
		page, err := f.RequestAndParse(context.Background(), srv.URL+"/headers",
			WithRequestHeaders(map[string]string{"Accept-Language": "en-CA", "Cookie": "region=ca"}))
		if err != nil {
			t.Fatalf("RequestAndParse() error = %v", err)
		}
		if got := page.Doc.Find("#lang").Text(); got != "en-CA" {
			t.Errorf("Accept-Language = %q", got)
		}
		if got := page.Doc.Find("#cookie").Text(); got != "region=ca" {
			t.Errorf("Cookie = %q", got)
		}
	})

	t.Run("body is truncated at max size", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(srv.Client(), WithMaxBodySize(10), WithLogger(slog.New(slog.DiscardHandler)))
		page, err := f.RequestAndParse(context.Background(), srv.URL+"/ok")
		if err != nil {
			t.Fatalf("RequestAndParse() error = %v", err)
		}
		if len(page.Raw) != 10 {
			t.Errorf("len(Raw) = %d, want 10", len(page.Raw))
		}
	})

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(nil)
		if _, err := f.RequestAndParse(context.Background(), ""); !errors.Is(err, ErrEmptyURL) {
			t.Errorf("expected ErrEmptyURL, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := NewFetcher(srv.Client(), WithLogger(slog.New(slog.DiscardHandler)))
		if _, err := f.RequestAndParse(ctx, srv.URL+"/ok"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestRequestAndParse_OutputFile(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := NewFetcher(srv.Client(), WithLogger(slog.New(slog.DiscardHandler)))

	name := filepath.Join(t.TempDir(), "pages", "kettle")
	if _, err := f.RequestAndParse(context.Background(), srv.URL+"/ok", WithOutputFile(name)); err != nil {
		t.Fatalf("RequestAndParse() error = %v", err)
	}

	path := name + ".html"
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  <span class=\"price\">\n   $1,299.99\n  </span>\n") {
		t.Errorf("unexpected prettified output:\n%s", data)
	}
}

func TestRequestAndParse_NoOutputOnFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := NewFetcher(srv.Client(), WithLogger(slog.New(slog.DiscardHandler)))

	name := filepath.Join(t.TempDir(), "missing")
	if _, err := f.RequestAndParse(context.Background(), srv.URL+"/missing", WithOutputFile(name)); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(name + ".html"); !os.IsNotExist(err) {
		t.Errorf("expected no output file, stat err = %v", err)
	}
}

func TestNewFetcher_NilClientLeavesDefaultClient(t *testing.T) {
	t.Parallel()

	before := http.DefaultClient.Transport
	_ = NewFetcher(nil)
	if http.DefaultClient.Transport != before {
		t.Error("NewFetcher(nil) modified http.DefaultClient")
	}
}
