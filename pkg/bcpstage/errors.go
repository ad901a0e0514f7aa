package bcpstage

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := importer.Import(ctx, cfg)
//	if errors.Is(err, bcpstage.ErrOperatorCancelled) {
//	    // Operator answered something other than the confirmation token
//	}
var (
	// ErrInvalidConfig indicates a required setting is missing or invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSourceNotFound indicates no input file, script or object could be resolved.
	ErrSourceNotFound = errors.New("source not found")

	// ErrInvalidIdentity indicates a table identity could not be derived from a name.
	ErrInvalidIdentity = errors.New("invalid table identity")

	// ErrOperatorCancelled indicates the operator did not confirm a destructive step.
	ErrOperatorCancelled = errors.New("cancelled by operator")

	// ErrToolFailed indicates bcp or sqlcmd exited with a non-zero status.
	ErrToolFailed = errors.New("external tool failed")

	// ErrTransferFailed indicates an object storage download or upload failed.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrConnectionFailed indicates a direct SQL Server connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrBatchFailed indicates at least one script of a batch failed.
	ErrBatchFailed = errors.New("batch failed")

	// ErrSchemaDrift indicates a staging table no longer mirrors its base table.
	ErrSchemaDrift = errors.New("staging schema drift")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrOperatorCancelled):
		return ExitCancelled
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrInvalidIdentity):
		return ExitSourceNotFound
	case errors.Is(err, ErrTransferFailed):
		return ExitTransferFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrBatchFailed):
		return ExitGeneralError
	case errors.Is(err, ErrToolFailed), errors.Is(err, ErrSchemaDrift):
		return ExitToolFailed
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// isUsageError recognizes the messages cobra produces for command line misuse.
func isUsageError(msg string) bool {
	usagePatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"required flag",
		"invalid argument",
		"flag needs an argument",
		"missing required argument",
	}
	for _, p := range usagePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
