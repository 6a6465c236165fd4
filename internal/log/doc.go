// Package log provides PricePal's logging setup on top of log/slog.
//
// Every record flows through a SecureHandler, which masks sensitive values
// (SMTP passwords, cookies, tokens) before anything reaches an output.
// Behind it a FanoutHandler splits records between two destinations:
//
//   - a StatusHandler that renders "time | LEVEL | message" lines into a
//     StatusSink, by default a single rewriting line on the terminal
//   - a rotating log file (lumberjack) that always records Debug and above
//     with source locations
//
// # Usage
//
//	logger, closer, err := log.Setup(log.Options{
//	    Verbose: verbose,
//	    File:    config.DefaultLogFile(),
//	    Status:  log.NewTerminalStatus(os.Stderr),
//	})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	slog.SetDefault(logger)
package log
