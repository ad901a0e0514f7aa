package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireTableName validates that exactly one table argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireTableName(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <table>

Usage: %s

Example:
  %s sales.Customers`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}

// OptionalSource accepts at most one file or object key argument.
func OptionalSource(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("accepts at most 1 arg(s), received %d", len(args))
	}
	return nil
}
