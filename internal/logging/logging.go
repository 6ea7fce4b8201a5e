package logging

import (
	"io"
	"log/slog"
	"os"
)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup configures the global slog logger based on the log level and optional log file.
func Setup(level string, logFile string) {
	var writer io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			writer = io.MultiWriter(os.Stderr, f)
		}
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

// WithRunID tags the default logger with the id of the current run.
func WithRunID(runID string) *slog.Logger {
	logger := slog.Default().With("run_id", runID)
	slog.SetDefault(logger)
	return logger
}
