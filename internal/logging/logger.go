// Package logging configures the structured logger used by the command line
// tools.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Level names accepted in configuration.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config holds logger configuration.
type Config struct {
	Level   string
	Format  string // "json" or "text"
	App     string
	Version string
	Output  io.Writer
}

// DefaultConfig logs info and above as text to stderr, leaving stdout to
// command output.
func DefaultConfig(app string) Config {
	return Config{
		Level:   LevelInfo,
		Format:  "text",
		App:     app,
		Version: "dev",
		Output:  os.Stderr,
	}
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn, "warning":
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger tagged with the application name and version.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.App != "" {
		logger = logger.With("app", cfg.App)
	}
	if cfg.Version != "" {
		logger = logger.With("version", cfg.Version)
	}
	return logger
}

// Timed logs the duration of an operation at info level when the returned
// function is called.
//
//	defer logging.Timed(logger, "optimize", "algorithm", "genetic")()
func Timed(logger *slog.Logger, op string, args ...any) func() {
	start := time.Now()
	return func() {
		attrs := append([]any{"op", op, "elapsed_ms", time.Since(start).Milliseconds()}, args...)
		logger.Info("operation finished", attrs...)
	}
}
