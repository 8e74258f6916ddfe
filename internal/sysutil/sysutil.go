// Package sysutil holds process-level helpers used by the server entrypoint:
// console logger construction, global log level and build version.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultVersion is reported when neither the build nor APP_VERSION set one.
const DefaultVersion = "dev"

// SetLogLevel sets the global zerolog level and returns it. Names are
// case-insensitive; "warning" is accepted for warn, and empty or unknown
// values fall back to info.
func SetLogLevel(lvl string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(lvl))
	if name == "warning" {
		name = "warn"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

// NewConsole returns the process console logger. With pretty set, records
// are rendered by zerolog.ConsoleWriter for local development; otherwise they
// are JSON lines. Both carry a timestamp.
func NewConsole(w io.Writer, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Version picks the reported service version: the link-time value first,
// then APP_VERSION, then DefaultVersion.
func Version(build string) string {
	return strings.TrimSpace(FirstNonEmpty(build, os.Getenv("APP_VERSION"), DefaultVersion))
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
