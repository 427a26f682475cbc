package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger. Development gets console output, everything
// else JSON.
func New(level, env string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, env)
}

// NewWithWriter is New writing to w
func NewWithWriter(w io.Writer, level, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "inkwell").
		Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
