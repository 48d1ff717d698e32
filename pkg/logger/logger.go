// Package logger provides structured logging for the portfolio platform.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	Level  string // trace, debug, info, warn, error, fatal, panic
	Pretty bool   // human-readable console output instead of JSON
}

// New builds a zerolog.Logger from cfg, defaulting to info level on an
// unrecognized level string.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer zerolog.ConsoleWriter
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		return zerolog.New(writer).Level(level).With().Timestamp().Caller().Logger()
	}

	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

// SetGlobalLogger installs log as zerolog.DefaultContextLogger, the logger
// zerolog.Ctx returns for a context that carries none. It does not replace
// the global Logger behind the zerolog/log package's helpers.
func SetGlobalLogger(log zerolog.Logger) {
	zerolog.DefaultContextLogger = &log
}
