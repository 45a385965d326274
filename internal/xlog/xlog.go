// Package xlog is the ambient structured-logging seam shared by every
// package in this module: a pluggable Logger interface, a package-level
// global default, and a zerolog-backed implementation.
//
// Grounded on the teacher's logging.go Logger/LogEntry/LogLevel shape
// (pluggable interface + package-level global + getGlobalLogger fallback to
// a no-op), but the built-in implementation is backed by
// github.com/rs/zerolog rather than a hand-rolled os.File writer, since the
// pack shows zerolog as the corpus's structured-logging library of choice
// (joeycumines-go-utilpkg/logiface-zerolog).
package xlog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's severity levels, keeping this package's public
// surface independent of the zerolog import for callers that only log.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Fields carries structured key/value context attached to one log line.
type Fields map[string]interface{}

// Logger is the structured logging interface used throughout this module:
// the reactor, the executor Worker and Timer, and netutil's socket option
// setup all log through one of these rather than calling a concrete
// implementation.
type Logger interface {
	Log(level Level, category, message string, err error, fields Fields)
	Enabled(level Level) bool
}

// zerologLogger adapts zerolog.Logger to the Logger interface.
type zerologLogger struct {
	z zerolog.Logger
}

// NewZerolog builds a Logger writing to w (os.Stderr is the usual choice)
// at the given minimum level.
func NewZerolog(w *os.File, level Level) Logger {
	z := zerolog.New(w).With().Timestamp().Logger().Level(level.zerolog())
	return &zerologLogger{z: z}
}

func (l *zerologLogger) Enabled(level Level) bool {
	return l.z.GetLevel() <= level.zerolog()
}

func (l *zerologLogger) Log(level Level, category, message string, err error, fields Fields) {
	ev := l.z.WithLevel(level.zerolog())
	if ev == nil {
		return
	}
	if category != "" {
		ev = ev.Str("category", category)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}

// noopLogger discards everything; used as the default before SetDefault is
// ever called, so packages never need a nil check.
type noopLogger struct{}

func (noopLogger) Enabled(Level) bool { return false }
func (noopLogger) Log(Level, string, string, error, Fields) {}

var defaultLogger struct {
	sync.RWMutex
	l Logger
}

// SetDefault installs the process-wide default Logger. Passing nil resets
// to the no-op logger.
func SetDefault(l Logger) {
	defaultLogger.Lock()
	defer defaultLogger.Unlock()
	defaultLogger.l = l
}

// Default returns the current process-wide Logger, defaulting to a no-op
// implementation so every call site works without explicit setup.
func Default() Logger {
	defaultLogger.RLock()
	defer defaultLogger.RUnlock()
	if defaultLogger.l != nil {
		return defaultLogger.l
	}
	return noopLogger{}
}

// Debug, Info, Warn and Error are convenience wrappers over Default().Log.
func Debug(category, message string, fields Fields) {
	Default().Log(LevelDebug, category, message, nil, fields)
}

func Info(category, message string, fields Fields) {
	Default().Log(LevelInfo, category, message, nil, fields)
}

func Warn(category, message string, err error, fields Fields) {
	Default().Log(LevelWarn, category, message, err, fields)
}

func Error(category, message string, err error, fields Fields) {
	Default().Log(LevelError, category, message, err, fields)
}
