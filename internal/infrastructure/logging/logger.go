package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/manaam216/gemns-integration/internal/infrastructure/config"
)

// Logger is the structured logger used across the fleet manager. It embeds
// *slog.Logger, so the promoted Debug/Info/Warn/Error methods satisfy the
// small Logger interfaces declared by the dispatcher, scheduler, and dongle
// packages. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of config.yaml. Every record
// carries service=gemns and the build version so log aggregators can tell
// deployments apart.
func New(cfg config.LoggingConfig, version string) *Logger {
	var w io.Writer = os.Stdout
	if strings.ToLower(cfg.Output) == "stderr" {
		w = os.Stderr
	}
	return build(cfg, w, version)
}

// build wires the handler onto an explicit writer. Split from New so tests
// can capture output in a buffer.
func build(cfg config.LoggingConfig, w io.Writer, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "gemns"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// parseLevel maps a config string to a slog level. Unrecognised values fall
// back to info rather than failing startup.
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

// With returns a child logger carrying extra default attributes, typically a
// component tag:
//
//	log.With("component", "dispatcher")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a JSON logger at info level for use before the config file
// has been loaded.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
