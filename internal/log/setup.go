package log

import (
	"io"
	"log/slog"
)

// Rotation defaults for the log file.
const (
	DefaultMaxSizeMB  = 1
	DefaultMaxBackups = 9
)

// Options configures Setup.
type Options struct {
	// Verbose lowers the status level from Info to Debug.
	Verbose bool

	// File is the rotating log file path. Empty disables file logging.
	File string

	// MaxSizeMB and MaxBackups control rotation. Zero uses the defaults.
	MaxSizeMB  int
	MaxBackups int

	// Status receives formatted status lines. Nil disables the status output.
	Status StatusSink
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the application logger. The returned closer flushes and
// closes the log file and must be called on exit.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	if opts.Status != nil {
		level := slog.LevelInfo
		if opts.Verbose {
			level = slog.LevelDebug
		}
		handlers = append(handlers, NewStatusHandler(opts.Status, level))
	}

	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = DefaultMaxSizeMB
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = DefaultMaxBackups
		}

		file, err := NewRotatingFile(opts.File, maxSize, maxBackups)
		if err != nil {
			return nil, nil, err
		}
		closer = file

		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	}

	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewTextHandler(io.Discard, nil))
	}

	return slog.New(NewSecureHandler(NewFanoutHandler(handlers...))), closer, nil
}
