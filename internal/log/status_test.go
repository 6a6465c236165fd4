package log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *recordingSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func TestStatusHandler_Format(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	h := NewStatusHandler(sink, slog.LevelDebug)

	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelWarn, "request failed", 0)
	r.AddAttrs(slog.Int("status", 404), slog.String("url", "https://shop.example/a b"))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	lines := sink.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	want := `2024-03-09 14:05:07 | WARN | request failed status=404 url="https://shop.example/a b"`
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
}

func TestStatusHandler_Level(t *testing.T) {
	t.Parallel()

	var lines []string
	logger := slog.New(NewStatusHandler(FuncSink(func(l string) { lines = append(lines, l) }), nil))

	logger.Debug("hidden")
	logger.Info("shown")

	if len(lines) != 1 || !strings.Contains(lines[0], "| INFO | shown") {
		t.Errorf("unexpected lines %q", lines)
	}
}

func TestStatusHandler_AttrsAndGroups(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	logger := slog.New(NewStatusHandler(sink, slog.LevelInfo)).
		With("product", "Kettle").
		WithGroup("price")

	logger.Info("observed", "current", "12.50", "previous", "13.00")

	lines := sink.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	for _, want := range []string{"product=Kettle", "price.current=12.50", "price.previous=13.00"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q does not contain %q", lines[0], want)
		}
	}
}

func TestTerminalStatus_NonTTYAppends(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewTerminalStatus(&buf)
	s.Append("first")
	s.Append("second")
	s.Done()

	if got := buf.String(); got != "first\nsecond\n" {
		t.Errorf("output = %q", got)
	}
}

func TestTerminalStatus_Rewrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := &TerminalStatus{w: &buf, rewrite: true}
	s.Append("first")
	s.Append("second")
	s.Done()

	want := "\r\x1b[Kfirst\r\x1b[Ksecond\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestTerminalStatus_WriterEndsStatusLine(t *testing.T) {
	t.Parallel()

	// stderr and stdout share one terminal.
	var term bytes.Buffer
	s := &TerminalStatus{w: &term, rewrite: true}
	out := s.Writer(&term)

	s.Append("tracking complete")
	fmt.Fprint(out, "PricePal report\n")
	fmt.Fprint(out, "kettle\n")
	s.Append("watching prices")
	fmt.Fprint(out, "PricePal report\n")

	want := "\r\x1b[Ktracking complete\nPricePal report\nkettle\n" +
		"\r\x1b[Kwatching prices\nPricePal report\n"
	if got := term.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
