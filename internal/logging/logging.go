// Package logging configures the process-wide slog default.
package logging

import (
	"log/slog"
	"os"
)

// Init installs a text handler on stderr as the default logger. Verbose
// enables debug output; otherwise only warnings and errors are emitted
// so report output on stdout stays clean.
func Init(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
