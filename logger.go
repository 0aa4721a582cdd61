package termrender

import (
	"log/slog"

	"github.com/gogpu/termrender/internal/logging"
)

// SetLogger configures the logger for termrender and all its sub-packages.
// By default termrender produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Log levels used by termrender:
//   - [slog.LevelDebug]: frame diagnostics (dirty runs, present damage)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, font resolved)
//   - [slog.LevelWarn]: non-fatal issues (software fallback, effect
//     disabled, frame wait timeout)
//
// Example:
//
//	termrender.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by termrender.
func Logger() *slog.Logger {
	return logging.Logger()
}
