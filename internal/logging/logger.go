// Package logging builds the structured logger threaded through the
// dispatcher, handshake, and schema cache.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrUnsupportedFormat is returned by NewLogger for a format string other
// than "json" or "text".
var ErrUnsupportedFormat = fmt.Errorf("logging: unsupported format")

// NewLogger builds a slog.Logger configured with the given level and
// format, writing to stdout. Supported formats are "json" (default, also
// used for "") and "text"; any other value is rejected. Supported levels
// are "debug", "info" (default, also used for ""), "warn"/"warning", and
// "error"; an unrecognized level falls back to "info" rather than erroring,
// since a typo'd level is not fatal to constructing a usable logger.
func NewLogger(level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return slog.New(handler), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
