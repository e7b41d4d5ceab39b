package logger

import "nocsim/internal/packet"

// Field represents a structured key:value pair attached to a log line.
type Field struct {
	Key string
	Val any
}

// Logger is the minimal structured-logging interface required by the
// simulator packages (directory, router, ncnode, noc). Concrete
// implementations adapt a real logging library (see internal/logger/zap);
// tests and non-logging callers use NopLogger.
type Logger interface {
	Named(name string) Logger
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// F is a concise helper to build a Field.
func F(key string, val any) Field { return Field{Key: key, Val: val} }

// FPacket serializes a packet.Packet into a structured, readable field.
func FPacket(key string, p packet.Packet) Field {
	return Field{
		Key: key,
		Val: map[string]any{
			"action":      p.Action.String(),
			"page":        p.Page,
			"source":      p.Source,
			"destination": p.Destination,
		},
	}
}

// ----------------------------------------------------------------
// NopLogger is a Logger implementation that discards everything.
type NopLogger struct{}

func (l *NopLogger) Named(name string) Logger          { return l }
func (l *NopLogger) With(fields ...Field) Logger       { return l }
func (l *NopLogger) Debug(msg string, fields ...Field) {}
func (l *NopLogger) Info(msg string, fields ...Field)  {}
func (l *NopLogger) Warn(msg string, fields ...Field)  {}
func (l *NopLogger) Error(msg string, fields ...Field) {}
