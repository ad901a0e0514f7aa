package bcpstage

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Run completed successfully
	ExitGeneralError     = 1  // Unknown error or a batch with failed scripts
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or missing settings
	ExitConnectionError  = 11 // Failed to connect to SQL Server
	ExitCancelled        = 12 // Operator did not confirm the truncate
	ExitToolFailed       = 13 // bcp or sqlcmd returned a non-zero exit code
	ExitSourceNotFound   = 14 // No input file, script or object could be resolved
	ExitTransferFailed   = 15 // Object storage download or upload failed
)

const (
	// DefaultSchema is used when a table name carries no schema part.
	DefaultSchema = "dbo"

	// DefaultStagingSuffix is appended to the base table name to form the staging table.
	DefaultStagingSuffix = "_STAGING"

	// DefaultFieldTerminator separates fields within each record of a flat file.
	DefaultFieldTerminator = ";"

	// DefaultMaxErrors is the number of rejected rows bcp tolerates before aborting a load.
	DefaultMaxErrors = 1

	// DefaultKeepIdentity preserves identity values from the flat file (bcp -E).
	DefaultKeepIdentity = true

	// DefaultConfirmToken is the answer that approves a truncate (case-insensitive).
	DefaultConfirmToken = "SIM"

	// ErrorSampleLines is how many rejected rows are read back from the bcp error file.
	ErrorSampleLines = 5

	// DefaultBCPPath and DefaultSQLCmdPath are resolved through $PATH.
	DefaultBCPPath    = "bcp"
	DefaultSQLCmdPath = "sqlcmd"

	// BCPExtension and GzipExtension identify flat files produced by the export driver.
	BCPExtension  = ".bcp"
	GzipExtension = ".gz"

	// SQLExtension identifies export queries and merge scripts.
	SQLExtension = ".sql"

	// DefaultForceApprovalCountdown is the countdown duration before --yes proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 200 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	// Retries only apply to connectivity checks, never to pipeline stages.
	DefaultRetryMaxAttempts = 3

	// MaxErrorPreviewLength caps the characters of a SQL statement echoed in errors.
	MaxErrorPreviewLength = 200

	// ExportTimestampLayout is appended to exported file names: <table>_<YYYYMMDD>_<HHMMSS>.
	ExportTimestampLayout = "20060102_150405"

	// LogTimestampLayout is used in log file names.
	LogTimestampLayout = "2006_01_02_15_04_05"
)
