// Package output provides logging and terminal output for the CLI.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// LogConfig controls logger setup.
type LogConfig struct {
	// Verbose enables debug output, timestamps and caller information.
	Verbose bool
}

var (
	logger *log.Logger
	logOut io.Writer = os.Stderr
	stdout io.Writer = os.Stdout
)

func init() {
	logger = log.NewWithOptions(logOut, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
}

// SetupLogging configures the logger based on verbosity. Logs keep going to
// the writer set by SetOutput, stderr by default.
func SetupLogging(cfg LogConfig) {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}

	logger = log.NewWithOptions(logOut, log.Options{
		Level:           level,
		ReportTimestamp: cfg.Verbose,
		ReportCaller:    cfg.Verbose,
		Prefix:          "gem2deb",
		Formatter:       formatterFor(logOut),
	})
}

// formatterFor picks logfmt when logs do not go to a terminal, which is
// the case inside package builds. Writers that are not files (tests) keep
// the text format.
func formatterFor(w io.Writer) log.Formatter {
	f, ok := w.(*os.File)
	if !ok || term.IsTerminal(int(f.Fd())) {
		return log.TextFormatter
	}
	return log.LogfmtFormatter
}

// Logger returns the current logger.
func Logger() *log.Logger {
	return logger
}

// SetOutput redirects standard output and logging, for tests. It returns a
// function restoring the previous writers.
func SetOutput(out, logs io.Writer) func() {
	prevOut, prevLogOut, prevLogger := stdout, logOut, logger
	stdout, logOut = out, logs
	logger = log.NewWithOptions(logs, log.Options{Level: prevLogger.GetLevel()})
	return func() {
		stdout, logOut, logger = prevOut, prevLogOut, prevLogger
	}
}

// Stdout returns the writer build logs and usage text go to.
func Stdout() io.Writer {
	return stdout
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	logger.Error(msg, keyvals...)
}
