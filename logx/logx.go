// Package logx wraps github.com/charmbracelet/log with the per-target
// binding the original's structlog-based logger.bind(target=target)
// provided (original_source/plsmake/__init__.py, log.py), mirroring how
// cloudposse-atmos/pkg/logger wires the same library.
package logx

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is a thin facade over *log.Logger. Callers hand a Logger to the
// core's executors through rulemk.WithLogger; without one the core logs to
// a Logger that discards its output.
type Logger struct {
	l *log.Logger
}

// New returns a Logger writing to os.Stderr at info level.
func New() *Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput returns a Logger writing to w.
func NewWithOutput(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	l.SetLevel(log.InfoLevel)
	return &Logger{l: l}
}

// SetLevel adjusts the minimum emitted level.
func (lg *Logger) SetLevel(level log.Level) {
	lg.l.SetLevel(level)
}

// Bind returns a child Logger with target permanently attached to every
// record it emits, the Go analogue of structlog's logger.bind(target=t).
func (lg *Logger) Bind(target string) *Logger {
	return &Logger{l: lg.l.With("target", target)}
}

func (lg *Logger) Debug(msg string, kv ...any) { lg.l.Debug(msg, kv...) }
func (lg *Logger) Info(msg string, kv ...any)  { lg.l.Info(msg, kv...) }
func (lg *Logger) Warn(msg string, kv ...any)  { lg.l.Warn(msg, kv...) }
func (lg *Logger) Error(msg string, kv ...any) { lg.l.Error(msg, kv...) }
