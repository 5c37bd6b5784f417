// Package logger provides component-tagged structured logging for the whole
// process. Output goes to stderr so stdout stays clean for the MCP stdio
// transport.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newLogger("console")
)

func newLogger(format string) zerolog.Logger {
	if strings.EqualFold(format, "json") {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Logger()
}

// Init configures the process logger. level is one of debug/info/warn/error,
// format is "console" or "json". Unknown values fall back to info/console.
func Init(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(format)
	zerolog.SetGlobalLevel(parseLevel(level))
}

// SetLevel changes the minimum level without touching the output format.
func SetLevel(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func emit(ev *zerolog.Event, component, msg string, fields map[string]interface{}) {
	ev = ev.Str("component", component)
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// DebugC logs a debug message tagged with a component.
func DebugC(component, msg string) { DebugCF(component, msg, nil) }

// InfoC logs an info message tagged with a component.
func InfoC(component, msg string) { InfoCF(component, msg, nil) }

// WarnC logs a warning tagged with a component.
func WarnC(component, msg string) { WarnCF(component, msg, nil) }

// ErrorC logs an error tagged with a component.
func ErrorC(component, msg string) { ErrorCF(component, msg, nil) }

// DebugCF logs a debug message with a component tag and structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Debug(), component, msg, fields)
}

// InfoCF logs an info message with a component tag and structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Info(), component, msg, fields)
}

// WarnCF logs a warning with a component tag and structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Warn(), component, msg, fields)
}

// ErrorCF logs an error with a component tag and structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Error(), component, msg, fields)
}
