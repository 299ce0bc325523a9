package logger

import (
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// BaseLogger is a printf-style logger with a bracketed component prefix,
// backed by zerolog so the output stays structured.
type BaseLogger struct {
	mu     sync.Mutex
	prefix string
	zl     zerolog.Logger
}

func NewLogger(writer io.Writer, prefix string) *BaseLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &BaseLogger{
		prefix: prefix,
		zl:     zerolog.New(writer).With().Timestamp().Logger(),
	}
}

// FromZerolog wraps an already configured zerolog logger.
func FromZerolog(zl zerolog.Logger, prefix string) *BaseLogger {
	return &BaseLogger{prefix: prefix, zl: zl}
}

func (l *BaseLogger) Log(format string, v ...interface{}) {
	l.emit(zerolog.InfoLevel, format, v...)
}

func (l *BaseLogger) Debug(format string, v ...interface{}) {
	l.emit(zerolog.DebugLevel, format, v...)
}

func (l *BaseLogger) Warn(format string, v ...interface{}) {
	l.emit(zerolog.WarnLevel, format, v...)
}

func (l *BaseLogger) Error(format string, v ...interface{}) {
	l.emit(zerolog.ErrorLevel, format, v...)
}

func (l *BaseLogger) emit(level zerolog.Level, format string, v ...interface{}) {
	l.mu.Lock()
	prefix := l.prefix
	l.mu.Unlock()

	ev := l.zl.WithLevel(level)
	if prefix != "" {
		ev = ev.Str("component", prefix)
	}
	ev.Msgf(strings.TrimRight(format, "\n"), v...)
}

func (l *BaseLogger) WithPrefix(extraPrefix string) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := extraPrefix
	if l.prefix != "" {
		prefix = l.prefix + " " + extraPrefix
	}
	return &BaseLogger{prefix: prefix, zl: l.zl}
}

// With attaches a structured field to every subsequent line.
func (l *BaseLogger) With(key string, value interface{}) *BaseLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &BaseLogger{prefix: l.prefix, zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *BaseLogger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
}

// Nop discards everything; handy for tests and optional dependencies.
func Nop() *BaseLogger {
	return &BaseLogger{zl: zerolog.Nop()}
}
