package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
)

// ServiceName is the value of the service field on every record.
const ServiceName = "seeed-ha"

// Logger is the daemon logger. It satisfies the Logger interface of every
// package that takes one.
type Logger struct {
	*slog.Logger
}

// New returns a logger configured by cfg whose records carry version.
func New(cfg config.LoggingConfig, version string) *Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return newLogger(out, cfg, version)
}

func newLogger(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	h := newHandler(w, cfg.Format, parseLevel(cfg.Level)).WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if strings.EqualFold(format, "text") {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(w),
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// parseLevel maps debug, info, warn(ing) and error to slog levels.
// Anything else is info.
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

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a logger tagged with component=name.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is the text logger used until the config has been read.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "text"}, "dev")
}
