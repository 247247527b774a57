// Package logx provides an injectable Logger capability: an interface
// passed into Valve, Gateway, and LogStream (SafeNode takes no logger
// and logs nothing itself) instead of a
// shared process-wide default logger. It is distinct from the CLI's
// human-facing terminal output (github.com/fatih/color); this package
// is the library's internal diagnostic logging, backed by
// github.com/rs/zerolog, a structured leveled logger well suited to an
// event-feed's ongoing diagnostics.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the capability every reliability-stack component logs
// through. Each method accepts structured key/value pairs the way
// zerolog's chained Str/Int/Err builders do, kept here as a plain
// map to avoid leaking a zerolog-specific type into package
// signatures that otherwise have none.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}

// zerologLogger adapts zerolog.Logger to the Logger interface.
type zerologLogger struct {
	z zerolog.Logger
}

// New builds a Logger that writes leveled, structured JSON (or, via
// zerolog.ConsoleWriter, human-readable) to w.
func New(w io.Writer) Logger {
	return &zerologLogger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// NewConsole builds a Logger writing zerolog's colorized console
// format to stderr — the default for the CLI demo binaries.
func NewConsole() Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return &zerologLogger{z: zerolog.New(cw).With().Timestamp().Logger()}
}

func apply(e *zerolog.Event, fields map[string]any) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

func (l *zerologLogger) Debug(msg string, fields map[string]any) {
	apply(l.z.Debug(), fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields map[string]any) {
	apply(l.z.Info(), fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields map[string]any) {
	apply(l.z.Warn(), fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, err error, fields map[string]any) {
	apply(l.z.Error().Err(err), fields).Msg(msg)
}

// Nop is a Logger that discards everything — the default for tests
// that don't care about diagnostic output.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]any)          {}
func (nopLogger) Info(string, map[string]any)           {}
func (nopLogger) Warn(string, map[string]any)           {}
func (nopLogger) Error(string, error, map[string]any)   {}
