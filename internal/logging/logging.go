// Package logging constructs the service-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger. In dev the output is human-readable console
// text; everywhere else it is JSON lines on stderr.
func New(appEnv string) zerolog.Logger {
	var out io.Writer = os.Stderr
	if appEnv == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "automation").Logger()
}
