package runner

import (
	"context"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

var _ bcpstage.ProcessRunner = (*DryRunner)(nil)

// DryRunner logs each command instead of running it and reports success.
type DryRunner struct {
	logger   bcpstage.Logger
	commands []bcpstage.Command
}

// NewDryRunner creates a DryRunner.
func NewDryRunner(logger bcpstage.Logger) *DryRunner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &DryRunner{logger: logger}
}

func (r *DryRunner) Run(ctx context.Context, cmd bcpstage.Command) (bcpstage.Result, error) {
	if err := ctx.Err(); err != nil {
		return bcpstage.Result{}, err
	}
	r.logger.Info("[dry-run] %s", cmd.String())
	r.commands = append(r.commands, cmd)
	return bcpstage.Result{}, nil
}

// Commands returns every command seen so far, in order.
func (r *DryRunner) Commands() []bcpstage.Command {
	return append([]bcpstage.Command(nil), r.commands...)
}
