// Package logging builds the zerolog loggers used by the server, the
// CLI and the terminal popup.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05"

// New returns a console logger writing to w at the named level.
// Unknown level names fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
	}).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewFile opens path for writing and returns a logger on it. Terminal
// programs use this since their stdout belongs to the UI. The caller
// closes the returned file just before the program exits.
func NewFile(path, level string) (zerolog.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("couldn't create %s: %w", path, err)
	}

	// No colors in a file.
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: timeFormat,
		NoColor:    true,
	}).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger, f, nil
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
