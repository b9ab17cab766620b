// Package sysutil holds process-level setup shared by the server binary:
// global log level, log sinks and small environment helpers.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// LogSink describes where log lines go.
type LogSink struct {
	Pretty bool // human-readable console output instead of JSON

	// File enables a rotated copy of every line; empty disables it.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogWriter builds the writer for the global logger. Console output goes
// to stdout; when File is set, JSON lines are also appended to a rotated
// file. The returned closer flushes and closes the file and is a no-op
// without one.
func NewLogWriter(s LogSink) (io.Writer, func() error) {
	return newLogWriter(s, os.Stdout)
}

func newLogWriter(s LogSink, stdout io.Writer) (io.Writer, func() error) {
	var console io.Writer = stdout
	if s.Pretty {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}
	if strings.TrimSpace(s.File) == "" {
		return console, func() error { return nil }
	}
	rot := &lumberjack.Logger{
		Filename:   s.File,
		MaxSize:    s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAge:     s.MaxAgeDays,
		Compress:   s.Compress,
	}
	return zerolog.MultiLevelWriter(console, rot), rot.Close
}

// FirstNonEmpty returns the first non-empty string from a variadic list.
// If all values are empty, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
