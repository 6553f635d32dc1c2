// Package logging builds the service's zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log event
const ServiceName = "stockmatch"

// Format values
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a logger writing to out (stdout when nil) at the given level.
// Unknown levels fall back to info.
func New(level, format string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	var zl zerolog.Logger
	if strings.EqualFold(format, FormatConsole) {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	} else {
		zl = zerolog.New(out)
	}

	return zl.Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
