package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bcpstage",
	Short: "Move SQL Server table data through bcp flat files",
	Long: `bcpstage exports query results to .bcp flat files, ships them through
S3-compatible object storage, reloads them into staging tables and runs merge
scripts against the staging and destination servers.

Settings come from the environment (.env is loaded automatically), an optional
bcpstage.yaml and command-line flags, in increasing order of precedence.

Exit Codes:
  0  - Success
  1  - General error (one or more batch scripts failed)
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or missing settings
  11 - Database connection failed
  12 - Truncate not confirmed by the operator
  13 - bcp or sqlcmd failed, or staging schema drift
  14 - Input file, object, script or table name not found
  15 - Object storage transfer failed`,
	SilenceUsage: true,
}

// Persistent flag values shared by every command.
type globalFlagValues struct {
	configFile string
	envFiles   []string
	yes        bool
	dryRun     bool
}

var globalFlags globalFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for bcpstage")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "",
		"Path to a bcpstage.yaml file (default: ./bcpstage.yaml when present)")
	rootCmd.PersistentFlags().StringSliceVar(&globalFlags.envFiles, "env-file", nil,
		"Additional .env files to load (can be specified multiple times)\n"+
			"Variables already set in the environment take precedence")
	rootCmd.PersistentFlags().Duration("timeout", 0,
		"Abort the whole run after this duration (0 = no limit)\n"+
			"Examples: 30m, 2h")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.yes, "yes", "y", false,
		"Confirm destructive steps (truncate) without prompting\n"+
			"Required for non-interactive runs")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.dryRun, "dry-run", false,
		"Log the bcp and sqlcmd commands that would run without running them")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
