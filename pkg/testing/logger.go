package fpltesting

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// NewLogger returns the logger used across the test suites. Output is
// suppressed below the error level unless FPL_TEST_LOG asks for more:
// set it to "info" or "debug" to watch a pipeline run.
func NewLogger() *slog.Logger {
	level := slog.LevelError
	switch os.Getenv("FPL_TEST_LOG") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}
