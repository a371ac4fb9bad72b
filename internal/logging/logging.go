// Package logging wraps zerolog construction so every component logs
// with the same base fields.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the process-wide root logger. Level comes from LOG_LEVEL
// (debug, info, warn, error); anything unrecognized falls back to info.
func New(service string) zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Component returns a child logger tagged with a component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
