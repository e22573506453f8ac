package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup builds the root logger every component derives its sub-logger from.
// format "pretty" writes human-readable console output for local work;
// anything else emits one JSON object per line. An unknown level falls back
// to info rather than failing startup.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	out := io.Writer(os.Stdout)
	if format == "pretty" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).With().Timestamp().Caller().Logger()
}
