package logging

import "github.com/vvka-141/bcpstage/pkg/bcpstage"

var _ bcpstage.Logger = (*NullLogger)(nil)

// NullLogger discards every message.
type NullLogger struct{}

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...interface{}) {}

func (l *NullLogger) Info(format string, args ...interface{}) {}

func (l *NullLogger) Error(format string, args ...interface{}) {}

// VerboseEnabled reports whether l writes Verbose messages. Loggers that do
// not say are treated as quiet.
func VerboseEnabled(l bcpstage.Logger) bool {
	v, ok := l.(interface{ VerboseEnabled() bool })
	return ok && v.VerboseEnabled()
}
