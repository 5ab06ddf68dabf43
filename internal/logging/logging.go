// Package logging builds the zerolog.Logger that the server, gateway and Connect handlers share.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Supported output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ValidFormat reports whether New() understands the format.
func ValidFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// New creates a timestamped logger that writes to 'out' at the given level. The console format
// is meant for humans at a terminal; use json anywhere the logs get shipped somewhere.
func New(out io.Writer, level string, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("logging: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
	case FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
