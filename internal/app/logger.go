package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Logger is the leveled logging contract used across the agent.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Level is a minimum severity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values fall back
// to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// stderrLogger writes prefixed lines to a writer, dropping entries
// below its threshold.
type stderrLogger struct {
	mu     sync.Mutex
	output io.Writer
	level  Level
}

// NewStderrLogger creates a logger writing to w at the given threshold.
func NewStderrLogger(w io.Writer, level Level) Logger {
	return &stderrLogger{output: w, level: level}
}

func (l *stderrLogger) log(level Level, prefix, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.output, prefix+": "+format+"\n", args...)
}

func (l *stderrLogger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, "DEBUG", format, args...)
}

func (l *stderrLogger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, "INFO", format, args...)
}

func (l *stderrLogger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, "WARN", format, args...)
}

func (l *stderrLogger) Error(format string, args ...interface{}) {
	l.log(LevelError, "ERROR", format, args...)
}

// globalLogger is the logger used by components that are not handed one
// explicitly.
var globalLogger Logger = NewStderrLogger(os.Stderr, LevelInfo)

// SetLogger replaces the global logger. A nil logger is ignored.
func SetLogger(logger Logger) {
	if logger != nil {
		globalLogger = logger
	}
}

// GetLogger returns the current global logger.
func GetLogger() Logger {
	return globalLogger
}

// NopLogger discards everything. Used by tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
