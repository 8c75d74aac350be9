package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Setup returns a console logger at the named level writing to w (stderr when
// nil). Unknown level names fall back to info.
func Setup(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	consoleWriter := zerolog.ConsoleWriter{Out: w, NoColor: true}
	return zerolog.New(consoleWriter).With().Timestamp().Logger().Level(lvl)
}
