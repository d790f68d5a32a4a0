package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/polkiloo/golightpay/internal/config"
)

// New creates a JSON slog.Logger honoring the configured level.
func New(cfg *config.Config) *slog.Logger {
	return newWithWriter(os.Stdout, ParseLevel(cfg.LogLevel))
}

func newWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
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
