package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		NameKey:        "logger",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func newZapLogger(enc zapcore.Encoder, writer io.Writer, level Level) *ZapLogger {
	atomic := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(enc, zapcore.AddSync(writer), atomic)
	return &ZapLogger{
		base:  zap.New(core),
		level: atomic,
	}
}

// NewJSONLogger creates a logger writing one JSON object per line
func NewJSONLogger(writer io.Writer, level Level) *ZapLogger {
	return newZapLogger(zapcore.NewJSONEncoder(encoderConfig()), writer, level)
}

// NewConsoleLogger creates a human-readable logger for interactive use
func NewConsoleLogger(writer io.Writer, level Level) *ZapLogger {
	return newZapLogger(zapcore.NewConsoleEncoder(encoderConfig()), writer, level)
}

// NewDefaultLogger creates a logger that writes JSON to stdout at INFO level
func NewDefaultLogger() *ZapLogger {
	return NewJSONLogger(os.Stdout, InfoLevel)
}

// New picks the encoder by mode ("console"/"dev" or JSON otherwise).
func New(mode string, writer io.Writer, level Level) *ZapLogger {
	switch mode {
	case "console", "dev", "development":
		return NewConsoleLogger(writer, level)
	default:
		return NewJSONLogger(writer, level)
	}
}

func (l *ZapLogger) log(level Level, msg string, fields []Field) {
	ce := l.base.Check(level.zapLevel(), msg)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		zf[i] = f.zap()
	}
	ce.Write(zf...)
}

// Debug logs a debug-level message
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields)
}

// Info logs an info-level message
func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields)
}

// Warn logs a warning-level message
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields)
}

// Error logs an error-level message
func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields)
}

// With creates a child logger with the given fields pre-set
func (l *ZapLogger) With(fields ...Field) Logger {
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		zf[i] = f.zap()
	}
	return &ZapLogger{
		base:  l.base.With(zf...),
		level: l.level,
	}
}

// SetLevel sets the minimum log level
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// GetLevel returns the current log level
func (l *ZapLogger) GetLevel() Level {
	return fromZapLevel(l.level.Level())
}

// Sync flushes any buffered entries
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

// Global default logger
var (
	defaultLogger Logger
	defaultMu     sync.Mutex
)

// DefaultLogger returns the global default logger
func DefaultLogger() Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		level := InfoLevel
		if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
			level = ParseLevel(levelStr)
		}
		defaultLogger = NewJSONLogger(os.Stdout, level)
	}
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Info logs an info-level message using the default logger
func Info(msg string, fields ...Field) {
	DefaultLogger().Info(msg, fields...)
}

// Warn logs a warning-level message using the default logger
func Warn(msg string, fields ...Field) {
	DefaultLogger().Warn(msg, fields...)
}

// ErrorLog logs an error-level message using the default logger
// Named ErrorLog to avoid conflict with Error field constructor
func ErrorLog(msg string, fields ...Field) {
	DefaultLogger().Error(msg, fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the timer started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation with its duration
func (t *TimedOperation) End(extra ...Field) time.Duration {
	elapsed := time.Since(t.start)
	fields := append(append([]Field{}, t.fields...), extra...)
	t.logger.Info(t.msg, append(fields, Latency(elapsed))...)
	return elapsed
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) time.Duration {
	elapsed := time.Since(t.start)
	fields := append([]Field{}, t.fields...)
	t.logger.Error(t.msg, append(fields, Latency(elapsed), Error(err))...)
	return elapsed
}
