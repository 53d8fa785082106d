package common

import (
	"fmt"
	"io"
	"os"
)

// LogWriter collects diagnostics across independently processed units.
// A unit fails fast internally, but the driver keeps feeding errors
// from other units here before reporting them all at once.
type LogWriter struct {
	Out    io.Writer
	errors []error
}

func (l *LogWriter) Err(errs ...error) bool {
	for _, e := range errs {
		if e != nil {
			l.errors = append(l.errors, e)
		}
	}
	return len(l.errors) > 0
}

func (l *LogWriter) HasErrors() bool {
	return len(l.errors) > 0
}

func (l *LogWriter) Errors() []error {
	return l.errors
}

func (l *LogWriter) Trace(message string) {
	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintln(out, message)
}

func (l *LogWriter) Flush() {
	out := l.Out
	if out == nil {
		out = os.Stderr
	}
	for _, e := range l.errors {
		_, _ = fmt.Fprintln(out, e)
	}
}
