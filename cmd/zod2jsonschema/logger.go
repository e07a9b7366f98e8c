package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// consoleLogger writes progress to out and warnings to errOut. Debug lines
// appear only in verbose mode.
type consoleLogger struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool

	warn  func(a ...interface{}) string
	debug func(a ...interface{}) string
}

func newConsoleLogger(out, errOut io.Writer, verbose bool) *consoleLogger {
	return &consoleLogger{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		warn:    color.New(color.FgYellow).SprintFunc(),
		debug:   color.New(color.Faint).SprintFunc(),
	}
}

func (l *consoleLogger) Infof(format string, args ...any) {
	fmt.Fprintf(l.out, format+"\n", args...)
}

func (l *consoleLogger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.errOut, "%s %s\n", l.warn("warning:"), fmt.Sprintf(format, args...))
}

func (l *consoleLogger) Debugf(format string, args ...any) {
	if !l.verbose {
		return
	}
	fmt.Fprintf(l.out, "%s\n", l.debug(fmt.Sprintf(format, args...)))
}
