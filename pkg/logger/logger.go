// Package logger builds the process-wide slog logger used by the ingest
// pipeline and its CLI.
package logger

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// New returns a tinted logger writing to stdout. Timestamps are rendered in
// UTC and empty string attrs are dropped to keep the ingest progress lines
// compact.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z",
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.TimeValue(a.Value.Time().UTC())
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	})).With("service", "fpldata")
}
