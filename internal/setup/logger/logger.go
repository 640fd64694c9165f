// Package logger builds the zerolog logger shared by every component of the
// tool search service.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const serviceName = "search-agent"

// New returns the service logger at the given level. Unknown level strings
// fall back to info.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit output, used by tests.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}
