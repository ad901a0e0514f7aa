// Package runner implements bcpstage.ProcessRunner on top of os/exec.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

var _ bcpstage.ProcessRunner = (*ExecRunner)(nil)

// ExecRunner starts real processes and captures their output.
// The child is killed when ctx ends.
type ExecRunner struct {
	logger bcpstage.Logger
}

// NewExecRunner creates an ExecRunner. Every command is logged (verbose) with
// secrets redacted before it starts.
func NewExecRunner(logger bcpstage.Logger) *ExecRunner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ExecRunner{logger: logger}
}

// Run executes cmd and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, cmd bcpstage.Command) (bcpstage.Result, error) {
	r.logger.Verbose("exec: %s", cmd.String())

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	result := bcpstage.Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s interrupted: %w", cmd.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		r.logger.Verbose("%s exited with code %d", cmd.Name, result.ExitCode)
		return result, nil
	default:
		return result, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
	}
}
