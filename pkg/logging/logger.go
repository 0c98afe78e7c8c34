package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields represents structured log fields
type Fields map[string]interface{}

type contextKey string

// RequestIDKey is the context key carrying a per-request identifier.
const RequestIDKey contextKey = "request_id"

// StructuredLogger provides structured JSON logging with context
type StructuredLogger struct {
	l       *zap.Logger
	level   zap.AtomicLevel
	service string
	version string
}

// NewStructuredLogger creates a zap-backed JSON logger writing to stdout.
// Level is one of "debug", "info", "warn", "error".
func NewStructuredLogger(service, version, level string) *StructuredLogger {
	return newLogger(service, version, level, os.Stdout)
}

// NewTestLogger creates a logger writing to the given sink, for tests.
func NewTestLogger(w io.Writer) *StructuredLogger {
	return newLogger("test", "dev", "debug", w)
}

func newLogger(service, version, level string, w io.Writer) *StructuredLogger {
	atomic := zap.NewAtomicLevelAt(parseLevel(level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.MessageKey = "message"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		atomic,
	)

	l := zap.New(core,
		zap.Fields(
			zap.String("service", service),
			zap.String("version", version),
		),
	)

	return &StructuredLogger{
		l:       l,
		level:   atomic,
		service: service,
		version: version,
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel changes the minimum log level at runtime.
func (s *StructuredLogger) SetLevel(level string) {
	s.level.SetLevel(parseLevel(level))
}

// Sync flushes buffered log entries.
func (s *StructuredLogger) Sync() error {
	return s.l.Sync()
}

// Debug logs a debug message with structured fields
func (s *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	s.l.Debug(message, s.zapFields(ctx, fields, nil)...)
}

// Info logs an info message with structured fields
func (s *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	s.l.Info(message, s.zapFields(ctx, fields, nil)...)
}

// Warn logs a warning message with structured fields
func (s *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	s.l.Warn(message, s.zapFields(ctx, fields, nil)...)
}

// Error logs an error message with structured fields and error details
func (s *StructuredLogger) Error(ctx context.Context, message string, fields Fields, err error) {
	s.l.Error(message, s.zapFields(ctx, fields, err)...)
}

// Fatal logs a fatal message and exits the program
func (s *StructuredLogger) Fatal(ctx context.Context, message string, fields Fields, err error) {
	s.l.Fatal(message, s.zapFields(ctx, fields, err)...)
}

func (s *StructuredLogger) zapFields(ctx context.Context, fields Fields, err error) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)

	if ctx != nil {
		if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
			out = append(out, zap.String("request_id", requestID))
		}
	}

	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}

	if err != nil {
		out = append(out, zap.Error(err), zap.StackSkip("stack_trace", 2))
	}

	return out
}
