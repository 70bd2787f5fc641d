package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the handler the logger writes through.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
	// FormatConsole is text without timestamps, for interactive use.
	FormatConsole LogFormat = "console"
)

// Config configures New. Empty fields mean info level, JSON and stderr.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Writer    io.Writer
}

// Logger is a slog.Logger whose records carry the run, model, node and
// trace fields stored in the context they are logged with.
type Logger struct {
	*slog.Logger
	level slog.Level
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	format := LogFormat(strings.ToLower(cfg.Format))
	if format == "" {
		format = FormatJSON
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatConsole:
		opts.ReplaceAttr = dropTime
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: unknown log format: %s", cfg.Format)
	}
	return &Logger{Logger: slog.New(&contextHandler{Handler: h}), level: level}, nil
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// Slog returns the logger as a plain *slog.Logger for packages that take
// one.
func (l *Logger) Slog() *slog.Logger { return l.Logger }

// Level is the minimum level the logger emits.
func (l *Logger) Level() slog.Level { return l.level }

// With returns a Logger with args added to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level}
}

// WithContext binds the context's log fields, for code that logs without
// passing ctx along. l itself is returned when ctx carries none.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if args := extractContextFields(ctx); len(args) > 0 {
		return l.With(args...)
	}
	return l
}

var levels = map[string]slog.Level{
	"":        slog.LevelInfo,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (slog.Level, error) {
	if l, ok := levels[strings.ToLower(s)]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
}
