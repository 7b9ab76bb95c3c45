package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Components receive it as a
// logrus.FieldLogger so tests can substitute their own.
var Log = logrus.New()

// Options selects level, formatter and an optional log file.
type Options struct {
	Level string
	JSON  bool
	File  string
}

// Configure applies opts to Log. A log file that cannot be opened is
// reported on the logger and output falls back to stderr.
func Configure(opts Options) error {
	if err := SetLevel(opts.Level); err != nil {
		return err
	}

	if opts.JSON {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	}

	if opts.File == "" {
		Log.SetOutput(os.Stderr)
		return nil
	}

	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		Log.SetOutput(os.Stderr)
		Log.WithError(err).Error("Could not open log file")
		return nil
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, file))
	return nil
}

// SetLevel parses a level name. Trace and panic levels are not used.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "", "info":
		Log.SetLevel(logrus.InfoLevel)
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	default:
		return fmt.Errorf("bad log level: %s (use debug, info, warn, error, fatal)", level)
	}
	return nil
}

// Discard returns a logger that drops everything. Used by tests and by the
// TUI, which owns the terminal.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// DetachTerminal stops log output to stderr while a full-screen program owns
// the terminal. Entries still reach the log file, if one is configured. The
// returned function restores the previous output.
func DetachTerminal(file string) (restore func()) {
	prev := Log.Out

	var out io.Writer = io.Discard
	var f *os.File
	if file != "" {
		var err error
		f, err = os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = f
		}
	}
	Log.SetOutput(out)

	return func() {
		Log.SetOutput(prev)
		if f != nil {
			_ = f.Close()
		}
	}
}
