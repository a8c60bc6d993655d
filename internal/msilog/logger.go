// Package msilog wraps logr.Logger the way rstms-iso-kit's pkg/logging
// does: a thin Logger facade over a logr.Logger so the rest of msikit
// never imports logr directly, plus a colorized terminal sink for the
// CLI front-end.
package msilog

import "github.com/go-logr/logr"

const (
	levelInfo  = 0
	levelDebug = 1
	levelTrace = 2
)

// Logger is the facade the core and cmd/msictl log through.
type Logger struct {
	log logr.Logger
}

// New wraps an existing logr.Logger. A discarding logr.Logger is
// substituted if log's sink is nil.
func New(log logr.Logger) *Logger {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Logger{log: log}
}

// Discard returns a Logger that drops everything, the default when a
// caller does not configure OpenOptions.Logger.
func Discard() *Logger { return &Logger{log: logr.Discard()} }

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(levelDebug).Info(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.log.V(levelTrace).Info(msg, keysAndValues...)
}

func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(err, msg, keysAndValues...)
}

// WithName returns a Logger scoped under name (e.g. "schema", "overlay").
func (l *Logger) WithName(name string) *Logger {
	return &Logger{log: l.log.WithName(name)}
}
