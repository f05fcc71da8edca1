package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a zerolog logger writing to out. format "json" gives
// line-delimited JSON, anything else the console writer.
func New(level, format string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if out == nil {
		out = os.Stdout
	}
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl)
}

// Init builds the process logger and installs it as zerolog's global.
func Init(level, format string) zerolog.Logger {
	l := New(level, format, os.Stdout)
	log.Logger = l
	return l
}

// Nop is a disabled logger for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
