package log

import (
	"log/slog"
	"os"
)

// New builds the process logger. JSON to stderr so TUI output on stdout
// stays clean.
func New(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	})
	return slog.New(handler)
}
