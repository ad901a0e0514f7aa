package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

var _ bcpstage.Logger = (*ConsoleLogger)(nil)

// TimestampLayout prefixes each line written by a timestamped logger.
const TimestampLayout = "2006-01-02 15:04:05"

// ConsoleLogger writes log lines to an io.Writer.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	out     io.Writer
	verbose bool
	now     func() time.Time
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger writing to stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewWriterLogger(os.Stderr, verbose, false)
}

// NewWriterLogger creates a ConsoleLogger writing to out.
// With timestamps enabled every line starts with the local time.
func NewWriterLogger(out io.Writer, verbose, timestamps bool) *ConsoleLogger {
	if out == nil {
		panic("output writer cannot be nil")
	}
	l := &ConsoleLogger{out: out, verbose: verbose}
	if timestamps {
		l.now = time.Now
	}
	return l
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("[VERBOSE] ", format, args)
}

// VerboseEnabled reports whether Verbose messages are written.
func (l *ConsoleLogger) VerboseEnabled() bool {
	return l.verbose
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write("[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(level, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.now != nil {
		fmt.Fprintf(l.out, "%s %s%s\n", l.now().Format(TimestampLayout), level, msg)
		return
	}
	fmt.Fprint(l.out, level+msg+"\n")
}
