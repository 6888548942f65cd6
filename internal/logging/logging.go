// Package logging configures the structured supervision log. Run events go
// to a rotating-free append file under the trigr logs directory; the CLI's
// human output stays on the display package.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// logFileName is the supervision log inside the trigr logs directory.
const logFileName = "trigr.log"

// Open returns a logger appending JSON events to the supervision log.
// When the log file cannot be opened the logger is discarded rather than
// failing the run.
func Open(logsDir string) zerolog.Logger {
	var w io.Writer
	f, err := os.OpenFile(filepath.Join(logsDir, logFileName),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		w = io.Discard
	} else {
		w = f
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Nop returns a logger that drops everything, for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
