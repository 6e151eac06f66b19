// Package applog wires up the process-wide structured logger from
// config.LoggingConfig, following the level/format flag handling in the
// retrieval pack's NFC tooling (ro/main.go and its sibling commands):
// a level string, a "text" or "json" format switch, slog.HandlerOptions,
// and slog.SetDefault.
package applog

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Setup builds and installs the process-wide slog logger for level and
// format (as read from config.LoggingConfig), writing to stderr.
func Setup(level, format string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json", "":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("applog: unknown log format %q", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("applog: unknown log level %q", level)
	}
}
