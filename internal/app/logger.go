package app

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. When
// logFile is set, output is also written to a size-rotated file; the
// returned closer releases it.
func newLogger(levelStr, formatStr, logFile string, outW io.Writer) (*slog.Logger, func() error) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	closer := func() error { return nil }
	w := outW
	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(outW, rotating)
		closer = rotating.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	case "pretty":
		pretty := charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			Prefix:          "compkit",
		})
		pretty.SetLevel(charmlog.Level(level))
		handler = pretty
	default:
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), closer
}
