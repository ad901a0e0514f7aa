package bcpstage

import "context"

// Approver handles operator confirmation before destructive operations,
// such as truncating a staging table.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves (--yes)
//   - InteractiveApprover: Prompts the operator to type the confirmation token
//   - ApproverFunc: Adapts a plain function (tests, automation)
type Approver interface {
	// RequestApproval asks for confirmation of the operation described by label.
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, label string) (bool, error)
}

// ApproverFunc adapts an ordinary function to the Approver interface.
type ApproverFunc func(ctx context.Context, label string) (bool, error)

// RequestApproval calls f(ctx, label).
func (f ApproverFunc) RequestApproval(ctx context.Context, label string) (bool, error) {
	return f(ctx, label)
}
