package log

import "log/slog"

// EmitLevelSamples writes one record per level so that every destination
// can be checked by eye.
func EmitLevelSamples(logger *slog.Logger) {
	logger.Debug("logging check: debug message")
	logger.Info("logging check: info message")
	logger.Warn("logging check: warning message")
	logger.Error("logging check: error message")
}
