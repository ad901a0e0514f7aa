package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// ForcedApprover approves automatically after a short countdown. Used with --yes
// so unattended runs still leave the operator a window to press Ctrl+C.
type ForcedApprover struct {
	countdown time.Duration
	output    io.Writer
	sleepFn   func(time.Duration)
}

// NewForcedApprover creates a ForcedApprover. A zero countdown approves immediately.
func NewForcedApprover(countdown time.Duration) bcpstage.Approver {
	return &ForcedApprover{
		countdown: countdown,
		output:    os.Stderr,
		sleepFn:   time.Sleep,
	}
}

// RequestApproval counts down and approves unless ctx ends first.
func (a *ForcedApprover) RequestApproval(ctx context.Context, label string) (bool, error) {
	fmt.Fprintln(a.output, WarningStyle.Render(fmt.Sprintf("--yes given: %s will be truncated", label)))

	for i := int(a.countdown.Seconds()); i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rTruncating in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(a.output, "\r%s Proceeding with truncate of %s                              \n", SymbolCheck, label)
	return true, nil
}

var _ bcpstage.Approver = (*ForcedApprover)(nil)
