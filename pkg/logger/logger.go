// Package logger provides the structured logging collaborator used across gridplug.
//
// The verbosity is chosen once at process start (from configuration or flags)
// and handed to components as a Logger; no package mutates log state at run time.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
)

// LogFilePermissions defines the file permissions for log files (owner read/write only).
const LogFilePermissions = 0o600

// Logger provides structured logging interface.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs recoverable problems with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// With returns a new logger with additional key-value pairs.
	With(keysAndValues ...any) Logger
}

// SlogAdapter implements Logger on top of log/slog with a TextHandler.
type SlogAdapter struct {
	log    *slog.Logger
	closer io.Closer
}

// New creates a logger writing records at or above level to w.
func New(w io.Writer, level Level) *SlogAdapter {
	return &SlogAdapter{
		log: slog.New(NewTextHandler(w, level)),
	}
}

// NewFileLogger creates a logger appending to the file at path.
func NewFileLogger(path string, level Level) (*SlogAdapter, error) {
	//nolint:gosec // path comes from operator configuration
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %s", path)
	}

	adapter := New(file, level)
	adapter.closer = file

	return adapter, nil
}

// Debug logs debug-level messages.
func (a *SlogAdapter) Debug(msg string, keysAndValues ...any) {
	a.log.Debug(msg, keysAndValues...)
}

// Info logs info-level messages.
func (a *SlogAdapter) Info(msg string, keysAndValues ...any) {
	a.log.Info(msg, keysAndValues...)
}

// Warn logs warn-level messages.
func (a *SlogAdapter) Warn(msg string, keysAndValues ...any) {
	a.log.Warn(msg, keysAndValues...)
}

// Error logs error-level messages.
func (a *SlogAdapter) Error(msg string, keysAndValues ...any) {
	a.log.Error(msg, keysAndValues...)
}

// With returns a new logger with additional base key-value pairs.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (a *SlogAdapter) With(keysAndValues ...any) Logger {
	return &SlogAdapter{log: a.log.With(keysAndValues...)}
}

// Close closes the underlying log file, if any.
func (a *SlogAdapter) Close() error {
	if a.closer == nil {
		return nil
	}

	return a.closer.Close()
}

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (*NoOpLogger) Debug(string, ...any) {}

// Info does nothing.
func (*NoOpLogger) Info(string, ...any) {}

// Warn does nothing.
func (*NoOpLogger) Warn(string, ...any) {}

// Error does nothing.
func (*NoOpLogger) Error(string, ...any) {}

// With returns the same NoOpLogger.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (n *NoOpLogger) With(...any) Logger {
	return n
}
