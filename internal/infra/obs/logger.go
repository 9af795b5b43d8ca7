package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger configures slog with colorful dev output and JSON for production-like envs.
// Extra handlers, such as the fluent shipper, receive every record as well.
func NewLogger(env string, level slog.Level, extra ...slog.Handler) *slog.Logger {
	return slog.New(newHandler(os.Stdout, env, level, extra...))
}

func newHandler(w io.Writer, env string, level slog.Level, extra ...slog.Handler) slog.Handler {
	var handler slog.Handler
	if env == "dev" || env == "local" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}
	if len(extra) == 0 {
		return handler
	}
	return fanout(append([]slog.Handler{handler}, extra...))
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
