package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// StatusTimeFormat is the timestamp layout of status lines.
const StatusTimeFormat = "2006-01-02 15:04:05"

// StatusSink receives one formatted status line per log record.
type StatusSink interface {
	Append(line string)
}

// FuncSink adapts a function to StatusSink.
type FuncSink func(line string)

// Append calls f(line).
func (f FuncSink) Append(line string) { f(line) }

// TerminalStatus writes status lines to a terminal. On a TTY each line
// replaces the previous one, like a status bar showing the latest message.
// Otherwise lines are appended.
type TerminalStatus struct {
	mu      sync.Mutex
	w       io.Writer
	rewrite bool
	width   int
}

// NewTerminalStatus creates a TerminalStatus writing to w. Line rewriting
// is enabled only when w is an *os.File attached to a terminal.
func NewTerminalStatus(w io.Writer) *TerminalStatus {
	rewrite := false
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		rewrite = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return &TerminalStatus{w: w, rewrite: rewrite}
}

// Append writes line, rewriting the current terminal line when possible.
func (s *TerminalStatus) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.rewrite {
		fmt.Fprintln(s.w, line)
		return
	}

	// \r returns to column 0 and \x1b[K clears what remains of the old line.
	fmt.Fprintf(s.w, "\r\x1b[K%s", line)
	s.width = len(line)
}

// Done terminates a rewritten status line so later output starts on a
// fresh line. It is a no-op when nothing was rewritten.
func (s *TerminalStatus) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rewrite && s.width > 0 {
		fmt.Fprintln(s.w)
		s.width = 0
	}
}

// Writer returns w wrapped so that each write first finishes the status
// line. Report output written through it starts on a line of its own.
func (s *TerminalStatus) Writer(w io.Writer) io.Writer {
	return &statusBreakWriter{status: s, w: w}
}

type statusBreakWriter struct {
	status *TerminalStatus
	w      io.Writer
}

func (b *statusBreakWriter) Write(p []byte) (int, error) {
	b.status.Done()
	return b.w.Write(p)
}

// StatusHandler is an slog.Handler that formats records as
// "time | LEVEL | message key=value ..." and pushes them into a StatusSink.
type StatusHandler struct {
	sink   StatusSink
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewStatusHandler creates a StatusHandler. A nil level means Info.
func NewStatusHandler(sink StatusSink, level slog.Leveler) *StatusHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &StatusHandler{sink: sink, level: level}
}

// Enabled reports whether level reaches the handler's minimum.
func (h *StatusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats r and appends it to the sink.
func (h *StatusHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format(StatusTimeFormat))
	b.WriteString(" | ")
	b.WriteString(r.Level.String())
	b.WriteString(" | ")
	b.WriteString(r.Message)

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})

	h.sink.Append(b.String())
	return nil
}

// WithAttrs returns a handler that includes attrs in every line.
func (h *StatusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	prefix := strings.Join(h.groups, ".")
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *StatusHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"=") {
		fmt.Fprintf(b, "%q", val)
		return
	}
	b.WriteString(val)
}
