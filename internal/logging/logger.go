// Package logging provides the structured logging interface used
// throughout the journal, plus a zap-backed default implementation.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo for informational messages
	LevelInfo
	// LevelWarn for warning messages
	LevelWarn
	// LevelError for error messages
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface for logging throughout the journal.
// Callers can implement this interface to integrate with their own logging system.
type Logger interface {
	// Debug logs a debug message
	Debug(msg string, fields ...Field)

	// Info logs an informational message
	Info(msg string, fields ...Field)

	// Warn logs a warning message
	Warn(msg string, fields ...Field)

	// Error logs an error message
	Error(msg string, fields ...Field)
}

// Field represents a structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// F is a convenience function to create a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoopLogger is a logger that does nothing.
type NoopLogger struct{}

// Debug implements Logger.
func (NoopLogger) Debug(string, ...Field) {}

// Info implements Logger.
func (NoopLogger) Info(string, ...Field) {}

// Warn implements Logger.
func (NoopLogger) Warn(string, ...Field) {}

// Error implements Logger.
func (NoopLogger) Error(string, ...Field) {}

// DefaultLogger backs Logger with a zap.SugaredLogger writing structured
// output to stderr. It is what a caller gets by asking for real logging
// instead of NoopLogger.
type DefaultLogger struct {
	minLevel Level
	sugar    *zap.SugaredLogger
}

func levelToZap(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// NewDefaultLogger creates a new default logger with the specified minimum level.
func NewDefaultLogger(minLevel Level) *DefaultLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelToZap(minLevel))
	logger, err := cfg.Build()
	if err != nil {
		// zap's production config only fails to build on a broken sink;
		// fall back to a no-op core rather than panicking a journal caller.
		logger = zap.NewNop()
	}
	return &DefaultLogger{minLevel: minLevel, sugar: logger.Sugar()}
}

// Debug implements Logger.
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.sugar.Debugw(msg, toZapArgs(fields)...)
}

// Info implements Logger.
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.sugar.Infow(msg, toZapArgs(fields)...)
}

// Warn implements Logger.
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.sugar.Warnw(msg, toZapArgs(fields)...)
}

// Error implements Logger.
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.sugar.Errorw(msg, toZapArgs(fields)...)
}

// Sync flushes any buffered log entries; callers should defer this after
// constructing a DefaultLogger for a long-lived process.
func (l *DefaultLogger) Sync() error {
	return l.sugar.Sync()
}

func toZapArgs(fields []Field) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}
