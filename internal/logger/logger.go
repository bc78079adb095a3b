// Package logger provides structured logging for ski-status.
//
// The logger keeps a small API of leveled calls taking a Fields map and writes
// through log/slog. Two output formats are supported: "text" renders colorized,
// human-friendly lines via tint, "json" emits one JSON object per line for log
// shippers.
//
// Example usage:
//
//	logger.Info("Pass finished", logger.Fields{
//	    "resorts": 14,
//	    "failed":  1,
//	})
//
//	logger.Error("Fetch failed", logger.Fields{
//	    "resort_id": "opas",
//	}, err)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Format selects the output encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	slog *slog.Logger
}

var defaultLogger = New(LevelInfo, FormatText, os.Stderr)

// ParseLevel converts a level name (case-insensitive) into a Level.
func ParseLevel(name string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(name))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "WARNING":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level: %s", name)
	}
}

// ParseFormat converts a format name into a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format: %s (must be 'text' or 'json')", name)
	}
}

// New creates a logger writing to output in the given format.
// Messages below level are discarded.
func New(level Level, format Format, output io.Writer) *Logger {
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level.slogLevel()})
	default:
		handler = tint.NewHandler(output, &tint.Options{
			Level:      level.slogLevel(),
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(output),
		})
	}
	return &Logger{slog: slog.New(handler)}
}

// SetDefault sets the package-level logger used by Debug, Info, Warn and Error,
// and installs it as the slog default.
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultLogger = l
	slog.SetDefault(l.slog)
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

// Slog exposes the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{slog: l.slog.With(fields.attrs()...)}
}

func (l *Logger) Debug(message string, fields Fields) {
	l.slog.Debug(message, fields.attrs()...)
}

func (l *Logger) Info(message string, fields Fields) {
	l.slog.Info(message, fields.attrs()...)
}

func (l *Logger) Warn(message string, fields Fields) {
	l.slog.Warn(message, fields.attrs()...)
}

// Error logs an error message; err is attached under the "error" key when non-nil.
func (l *Logger) Error(message string, fields Fields, err error) {
	args := fields.attrs()
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	l.slog.Error(message, args...)
}

// Package-level convenience functions using default logger

func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}

// attrs flattens fields into slog key/value pairs sorted by key so output is stable.
func (f Fields) attrs() []any {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, slog.Any(k, f[k]))
	}
	return args
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
