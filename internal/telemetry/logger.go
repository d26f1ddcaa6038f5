package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Logger provides structured logging backed by log/slog.
type Logger struct {
	inner    *slog.Logger
	level    slog.Level
	format   string
	mu       sync.Mutex
	handlers []slog.Handler
	files    []*os.File
}

// NewLogger creates a new structured logger writing to stderr.
func NewLogger(verbose bool, level, format string) *Logger {
	return NewLoggerTo(os.Stderr, verbose, level, format)
}

// NewLoggerTo creates a logger writing to w. verbose forces debug level;
// format is "text" or "json".
func NewLoggerTo(w io.Writer, verbose bool, level, format string) *Logger {
	lvl := ParseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}

	handler := newHandler(w, lvl, format)
	return &Logger{
		inner:    slog.New(handler),
		level:    lvl,
		format:   format,
		handlers: []slog.Handler{handler},
	}
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// WithFile adds JSON file output to the logger. Records are fanned out to
// every configured handler.
func (l *Logger) WithFile(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.files = append(l.files, file)
	l.handlers = append(l.handlers, newHandler(file, l.level, "json"))
	l.inner = slog.New(slogmulti.Fanout(l.handlers...))

	return nil
}

// WithFields returns a new logger with additional key-value fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	return &Logger{
		inner:    l.inner.With(args...),
		level:    l.level,
		format:   l.format,
		handlers: append([]slog.Handler(nil), l.handlers...),
	}
}

// Close closes all file writers opened via WithFile.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}

// Slog returns the underlying *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.inner
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.inner.Debug(msg, keyvals...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.inner.Info(msg, keyvals...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.inner.Warn(msg, keyvals...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.inner.Error(msg, keyvals...)
}

// Discard returns a logger that drops everything. Used by tests and by
// commands that render machine-readable output only.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, false, "error", "text")
}
