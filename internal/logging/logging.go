// Package logging builds the console logger shared by the command line tools.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Params contains configuration for creating a console logger.
type Params struct {
	Debug bool
	Quiet bool
	// Output defaults to stderr.
	Output io.Writer
	Prefix string
}

// New creates a console logger.
func New(params Params) *log.Logger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	if params.Quiet {
		level = log.WarnLevel
	}
	out := params.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          params.Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
