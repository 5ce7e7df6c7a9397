// Package logger provides structured logging for the game server.
// Every room action and rule resolution should be traceable through this.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Logger provides structured logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	debug       atomic.Bool
}

// NewLogger creates a logger writing info and warnings to stdout and errors
// to stderr.
func NewLogger() *Logger {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters creates a logger over arbitrary sinks.
func NewWithWriters(out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLogger:  log.New(out, "[SHIFT-INFO] ", flags),
		warnLogger:  log.New(out, "[SHIFT-WARN] ", flags),
		errorLogger: log.New(errOut, "[SHIFT-ERROR] ", flags),
		debugLogger: log.New(out, "[SHIFT-DEBUG] ", flags),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithWriters(io.Discard, io.Discard)
}

// SetDebug toggles debug output.
func (l *Logger) SetDebug(on bool) {
	l.debug.Store(on)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Output(2, msg)
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.infoLogger.Output(2, fmt.Sprintf(format, args...))
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Output(2, msg)
}

// Warnf logs a formatted warning.
func (l *Logger) Warnf(format string, args ...any) {
	l.warnLogger.Output(2, fmt.Sprintf(format, args...))
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Output(2, msg)
}

// Errorf logs a formatted error.
func (l *Logger) Errorf(format string, args ...any) {
	l.errorLogger.Output(2, fmt.Sprintf(format, args...))
}

// Debugf logs only when debug output is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.debug.Load() {
		return
	}
	l.debugLogger.Output(2, fmt.Sprintf(format, args...))
}

// Event logs a specific game event for room oversight.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.infoLogger.Output(2, fmt.Sprintf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details))
}
