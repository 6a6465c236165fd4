package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultMaxBodySize bounds how much of a response body is read (5MB).
const DefaultMaxBodySize = 5 * 1024 * 1024

// Fetcher performs single-shot page requests.
type Fetcher struct {
	client      *resty.Client
	userAgent   string
	maxBodySize int64
	parser      Parser
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize bounds the number of body bytes read. Zero keeps the default.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithDefaultParser sets the parser used when a request does not pick one.
func WithDefaultParser(p Parser) FetcherOption {
	return func(f *Fetcher) {
		f.parser = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher on top of httpClient. A nil client gets a
// new http.Client; resty sets the transport of the client it wraps.
func NewFetcher(httpClient *http.Client, opts ...FetcherOption) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	f := &Fetcher{
		maxBodySize: DefaultMaxBodySize,
		parser:      ParserHTML,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = resty.NewWithClient(httpClient).
		SetRetryCount(0).
		SetLogger(restyLogger{f.logger})
	if f.userAgent != "" {
		f.client.SetHeader("User-Agent", f.userAgent)
	}

	return f
}

// RequestOption configures a single RequestAndParse call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	parser     Parser
	outputFile string
	headers    map[string]string
}

// WithParser overrides the fetcher's parser for one request.
func WithParser(p Parser) RequestOption {
	return func(o *requestOptions) {
		o.parser = p
	}
}

// WithOutputFile saves the prettified document to name + ".html" after a
// successful parse. An empty name saves nothing.
func WithOutputFile(name string) RequestOption {
	return func(o *requestOptions) {
		o.outputFile = name
	}
}

// WithRequestHeaders adds headers to one request. A "Cookie" entry is sent
// as is.
func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		if len(headers) == 0 {
			return
		}
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

// RequestAndParse requests url once and, when the status allows it, parses
// the body. 4xx and unclassified responses return a *StatusError.
func (f *Fetcher) RequestAndParse(ctx context.Context, url string, opts ...RequestOption) (*Page, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	o := requestOptions{parser: f.parser}
	for _, opt := range opts {
		opt(&o)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(o.headers).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	code := resp.StatusCode()
	class := ClassifyStatus(code)
	logger := f.logger.With("url", url, "status", code)

	switch class {
	case ClassOK:
		logger.Debug("completed request: response code is OK, proceeding with parse")
	case ClassSuccess:
		logger.Debug("completed request: response code is unexpected but not critical, proceeding with parse")
	case ClassClientError:
		logger.Warn("completed request: response code is critical, cannot proceed with parse")
		return nil, &StatusError{URL: url, Code: code, Class: class}
	default:
		logger.Warn("completed request: response code is unclassified, further assessment required, cannot proceed with parse")
		return nil, &StatusError{URL: url, Code: code, Class: class}
	}

	raw, err := io.ReadAll(io.LimitReader(body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	doc, err := Parse(bytes.NewReader(raw), o.parser)
	if err != nil {
		return nil, err
	}

	page := &Page{
		URL:         url,
		FinalURL:    url,
		StatusCode:  code,
		Class:       class,
		ContentType: resp.Header().Get("Content-Type"),
		Headers:     resp.Header(),
		Raw:         raw,
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Hash:        ContentHash(raw),
		Doc:         doc,
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		page.FinalURL = resp.RawResponse.Request.URL.String()
	}

	if o.outputFile != "" {
		if err := SavePrettified(page, o.outputFile); err != nil {
			return page, err
		}
		logger.Debug("saved prettified page", "file", o.outputFile+".html")
	}

	return page, nil
}

// SavePrettified writes page.Prettify() to name + ".html" with 0600
// permissions, creating parent directories.
func SavePrettified(page *Page, name string) error {
	path := name + ".html"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(page.Prettify()), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// restyLogger routes resty's internal messages to slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
