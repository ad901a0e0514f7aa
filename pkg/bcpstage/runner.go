package bcpstage

import (
	"context"
	"strings"
)

// ProcessRunner executes external command-line tools (bcp, sqlcmd).
//
// Run returns an error only when the process could not be started or the
// context ended before it exited. A non-zero exit code is reported through
// Result so callers can attach the captured output to their own errors.
type ProcessRunner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Command describes one invocation of an external tool.
type Command struct {
	// Name is the executable path or a name resolved through $PATH.
	Name string

	// Args are passed verbatim, without shell interpretation.
	Args []string

	// Secrets lists argument values that must never appear in logs.
	Secrets []string
}

// String renders the command line for logging with secret values masked.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		parts = append(parts, c.redact(arg))
	}
	return strings.Join(parts, " ")
}

func (c Command) redact(arg string) string {
	for _, secret := range c.Secrets {
		if secret == "" {
			continue
		}
		if arg == secret {
			return "******"
		}
		arg = strings.ReplaceAll(arg, secret, "******")
	}
	return arg
}

// Result captures the outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the process exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}
