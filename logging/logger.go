package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"
)

// LogLevel is the user facing level, decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a case-insensitive level name into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface for RoleMesh.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// RoleMeshLogger is a slog-backed Logger carrying scoped attributes. The
// With* methods return copies; the receiver is never mutated.
type RoleMeshLogger struct {
	base  *slog.Logger
	attrs []slog.Attr
}

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	RunID       string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a JSON info level configuration writing to stderr.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr}
}

// NewLogger builds a RoleMeshLogger from cfg, or from DefaultLoggerConfig when nil.
func NewLogger(cfg *LoggerConfig) *RoleMeshLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.slog(), AddSource: cfg.AddSource}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	}

	l := FromSlog(slog.New(h))
	if cfg.Component != "" {
		l = l.WithComponent(cfg.Component)
	}
	if cfg.RunID != "" {
		l = l.WithRun(cfg.RunID)
	}
	for k, v := range cfg.CustomAttrs {
		l = l.WithContext(k, v)
	}

	return l
}

// NewSlogLogger is a shorthand for NewLogger writing to stderr.
func NewSlogLogger(level LogLevel, format string, addSource bool) *RoleMeshLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

// FromSlog wraps an existing slog.Logger.
func FromSlog(l *slog.Logger) *RoleMeshLogger {
	if l == nil {
		l = slog.Default()
	}
	return &RoleMeshLogger{base: l}
}

// WithContext returns a copy that attaches key=value to every record.
// Setting an existing key replaces its value.
func (l *RoleMeshLogger) WithContext(key string, value any) *RoleMeshLogger {
	attrs := slices.Clone(l.attrs)
	if i := slices.IndexFunc(attrs, func(a slog.Attr) bool { return a.Key == key }); i >= 0 {
		attrs[i] = slog.Any(key, value)
	} else {
		attrs = append(attrs, slog.Any(key, value))
	}
	return &RoleMeshLogger{base: l.base, attrs: attrs}
}

// WithComponent scopes records to a component (society, agent, mcp, runner).
func (l *RoleMeshLogger) WithComponent(c string) *RoleMeshLogger {
	return l.WithContext("component", c)
}

// WithRun scopes records to a session run.
func (l *RoleMeshLogger) WithRun(runID string) *RoleMeshLogger {
	return l.WithContext("run_id", runID)
}

func (l *RoleMeshLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.base.Enabled(ctx, level) {
		return
	}
	all := make([]any, 0, len(l.attrs)+len(args))
	for _, a := range l.attrs {
		all = append(all, a)
	}
	l.base.Log(ctx, level, msg, append(all, args...)...)
}

// Debug logs at debug level.
func (l *RoleMeshLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

// Info logs at info level.
func (l *RoleMeshLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func (l *RoleMeshLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }

// Error logs at error level.
func (l *RoleMeshLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// LogRound records the outcome of one society round.
func (l *RoleMeshLogger) LogRound(round int, toolCalls int, dur time.Duration, done bool) {
	l.Info("society.round.completed", "round", round, "tool_calls", toolCalls, "duration", dur, "task_done", done)
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// Debug discards the record.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the record.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the record.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the record.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}
