package journal

import "github.com/relayq/journal/internal/logging"

// Logger is the interface a caller implements to receive structured log
// output from a Journal. Passing nil to Options.Logger disables logging.
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
}

// LogField is a structured logging key-value pair.
type LogField struct {
	Key   string
	Value interface{}
}

// F is a convenience constructor for a LogField.
func F(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// NewDefaultLogger returns a Logger backed by the same zap configuration
// the journal uses internally, at the given minimum level ("debug",
// "info", "warn", or "error"; anything else defaults to "info").
func NewDefaultLogger(minLevel string) Logger {
	return &loggerAdapter{internal: logging.NewDefaultLogger(parseLevel(minLevel))}
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// loggerAdapter lets NewDefaultLogger hand back a public Logger while
// reusing the internal zap-backed implementation.
type loggerAdapter struct {
	internal *logging.DefaultLogger
}

func (a *loggerAdapter) Debug(msg string, fields ...LogField) { a.internal.Debug(msg, toInternalFields(fields)...) }
func (a *loggerAdapter) Info(msg string, fields ...LogField)  { a.internal.Info(msg, toInternalFields(fields)...) }
func (a *loggerAdapter) Warn(msg string, fields ...LogField)  { a.internal.Warn(msg, toInternalFields(fields)...) }
func (a *loggerAdapter) Error(msg string, fields ...LogField) { a.internal.Error(msg, toInternalFields(fields)...) }

func toInternalFields(fields []LogField) []logging.Field {
	out := make([]logging.Field, len(fields))
	for i, f := range fields {
		out[i] = logging.F(f.Key, f.Value)
	}
	return out
}

// convertLogger adapts a public Logger to the internal logging.Logger
// interface the journalfile package expects. A nil Logger becomes a
// no-op.
func convertLogger(l Logger) logging.Logger {
	if l == nil {
		return logging.NoopLogger{}
	}
	return &externalLoggerAdapter{l: l}
}

type externalLoggerAdapter struct {
	l Logger
}

func (a *externalLoggerAdapter) Debug(msg string, fields ...logging.Field) {
	a.l.Debug(msg, toPublicFields(fields)...)
}
func (a *externalLoggerAdapter) Info(msg string, fields ...logging.Field) {
	a.l.Info(msg, toPublicFields(fields)...)
}
func (a *externalLoggerAdapter) Warn(msg string, fields ...logging.Field) {
	a.l.Warn(msg, toPublicFields(fields)...)
}
func (a *externalLoggerAdapter) Error(msg string, fields ...logging.Field) {
	a.l.Error(msg, toPublicFields(fields)...)
}

func toPublicFields(fields []logging.Field) []LogField {
	out := make([]LogField, len(fields))
	for i, f := range fields {
		out[i] = LogField{Key: f.Key, Value: f.Value}
	}
	return out
}
