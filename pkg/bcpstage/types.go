package bcpstage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // SQL Server login (username/password)
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ConnectionConfig holds the login for one SQL Server environment.
// The same values feed bcp, sqlcmd and direct driver connections.
type ConnectionConfig struct {
	// Label names the environment in logs and errors ("source", "staging", "destination").
	Label string

	Server   string
	Database string
	Username string
	Password string

	AuthMethod AuthMethod

	// Params are extra driver settings for direct connections (encrypt,
	// TrustServerCertificate, app name, ...). bcp and sqlcmd ignore them.
	Params map[string]string

	// Azure Entra ID service principal (used when AuthMethod is AuthMethodAzureEntraID).
	// If none are provided, the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Missing returns the names of required fields that are empty.
func (c ConnectionConfig) Missing() []string {
	var missing []string
	if c.Server == "" {
		missing = append(missing, "server")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.AuthMethod == AuthMethodStandard {
		if c.Username == "" {
			missing = append(missing, "username")
		}
		if c.Password == "" {
			missing = append(missing, "password")
		}
	}
	return missing
}

// Validate reports every missing field in a single error wrapping ErrInvalidConfig.
func (c ConnectionConfig) Validate() error {
	if !c.AuthMethod.IsValid() {
		return fmt.Errorf("%s connection: unsupported auth method %s: %w", c.label(), c.AuthMethod, ErrInvalidConfig)
	}
	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("%s connection: missing %s: %w", c.label(), strings.Join(missing, ", "), ErrInvalidConfig)
	}
	return nil
}

func (c ConnectionConfig) label() string {
	if c.Label == "" {
		return "database"
	}
	return c.Label
}

// StagingPolicy selects how a missing staging table is created.
type StagingPolicy string

const (
	// StagingPolicyDDL synthesizes CREATE TABLE from catalog metadata,
	// keeping types, sizes, nullability and identity.
	StagingPolicyDDL StagingPolicy = "ddl"

	// StagingPolicyClone copies the shape with SELECT TOP 0 * INTO.
	StagingPolicyClone StagingPolicy = "clone"
)

// ParseStagingPolicy parses a policy name case-insensitively. Empty selects the default.
func ParseStagingPolicy(s string) (StagingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StagingPolicyDDL):
		return StagingPolicyDDL, nil
	case string(StagingPolicyClone):
		return StagingPolicyClone, nil
	default:
		return "", fmt.Errorf("unknown staging policy %q (expected ddl or clone): %w", s, ErrInvalidConfig)
	}
}

// ImportSource identifies where the import flat file comes from.
type ImportSource string

const (
	ImportSourceLocal ImportSource = "local"
	ImportSourceS3    ImportSource = "s3"
)

// ImportConfig contains all parameters needed for one import run.
type ImportConfig struct {
	Source ImportSource

	// LocalDir and FileName locate a local flat file. FileName empty selects
	// the newest .bcp/.bcp.gz in LocalDir.
	LocalDir string
	FileName string

	// ObjectKey selects an explicit object; otherwise the newest object under Prefix.
	ObjectKey   string
	Prefix      string
	DownloadDir string

	// Connection is the environment that receives the load.
	Connection ConnectionConfig

	FieldTerminator string
	KeepIdentity    bool
	MaxErrors       int
	ErrorFile       string

	StagingSuffix string
	StagingPolicy StagingPolicy

	// Direct loads into the inferred base table without reconciliation or truncate.
	Direct bool

	Timeout time.Duration
}

// Validate checks if the ImportConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *ImportConfig) Validate() error {
	var errs []error

	if err := c.Connection.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Source {
	case ImportSourceLocal:
		if c.LocalDir == "" && c.FileName == "" {
			errs = append(errs, fmt.Errorf("LOCAL_IMPORT_DIR or an explicit file is required: %w", ErrInvalidConfig))
		}
	case ImportSourceS3:
		if c.ObjectKey == "" && c.Prefix == "" {
			errs = append(errs, fmt.Errorf("S3_OBJECT_KEY or S3_KEY is required: %w", ErrInvalidConfig))
		}
		if c.DownloadDir == "" {
			errs = append(errs, fmt.Errorf("DOWNLOAD_DIR is required: %w", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown import source %q: %w", c.Source, ErrInvalidConfig))
	}

	if c.FieldTerminator == "" {
		errs = append(errs, fmt.Errorf("FIELD_TERMINATOR cannot be empty: %w", ErrInvalidConfig))
	}
	if c.MaxErrors < 0 {
		errs = append(errs, fmt.Errorf("BCP_MAX_ERRORS must be >= 0, got %d: %w", c.MaxErrors, ErrInvalidConfig))
	}
	if !c.Direct && c.StagingSuffix == "" {
		errs = append(errs, fmt.Errorf("STAGING_SUFFIX cannot be empty: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ExportConfig contains all parameters needed for an export batch.
type ExportConfig struct {
	Connection ConnectionConfig

	// ScriptsDir holds one .sql query per export. Scripts restricts the batch
	// to the named files (".sql" appended when missing).
	ScriptsDir string
	Scripts    []string

	OutputDir string

	// Prefix is the object key prefix uploads are placed under.
	Prefix string

	FieldTerminator string

	// Timestamp appends _YYYYMMDD_HHMMSS to every output name.
	Timestamp bool

	Timeout time.Duration
}

// Validate checks if the ExportConfig has all required fields and valid values.
func (c *ExportConfig) Validate() error {
	var errs []error

	if err := c.Connection.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ScriptsDir == "" {
		errs = append(errs, fmt.Errorf("SCRIPTS_DIR is required: %w", ErrInvalidConfig))
	}
	if c.OutputDir == "" {
		errs = append(errs, fmt.Errorf("OUTPUT_DIR is required: %w", ErrInvalidConfig))
	}
	if c.Prefix == "" {
		errs = append(errs, fmt.Errorf("S3_KEY is required: %w", ErrInvalidConfig))
	}
	if c.FieldTerminator == "" {
		errs = append(errs, fmt.Errorf("FIELD_TERMINATOR cannot be empty: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// MergeConfig contains all parameters needed for a merge batch.
type MergeConfig struct {
	Staging     ConnectionConfig
	Destination ConnectionConfig

	ScriptsDir string
	Scripts    []string

	Timeout time.Duration
}

// Validate checks if the MergeConfig has all required fields and valid values.
func (c *MergeConfig) Validate() error {
	var errs []error

	if err := c.Staging.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Destination.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ScriptsDir == "" {
		errs = append(errs, fmt.Errorf("SCRIPTS_MERGE_DIR is required: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadOutcome is the result of one bulk-load invocation.
type LoadOutcome struct {
	ExitCode        int
	Stdout          string
	Stderr          string
	SampleErrorRows []string
}

// LoadError reports a failed bulk load together with its captured output.
type LoadError struct {
	Table   TableIdentity
	Outcome LoadOutcome
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bcp load into %s failed with exit code %d", e.Table.Dotted(), e.Outcome.ExitCode)
	if out := strings.TrimSpace(e.Outcome.Stdout); out != "" {
		fmt.Fprintf(&b, "\nstdout: %s", out)
	}
	if out := strings.TrimSpace(e.Outcome.Stderr); out != "" {
		fmt.Fprintf(&b, "\nstderr: %s", out)
	}
	if len(e.Outcome.SampleErrorRows) > 0 {
		b.WriteString("\nerror file sample:")
		for _, line := range e.Outcome.SampleErrorRows {
			b.WriteString("\n  ")
			b.WriteString(line)
		}
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return ErrToolFailed
}

// ToolError reports a non-zero exit from sqlcmd or bcp.
type ToolError struct {
	// Op describes what was being attempted ("ensure staging table", "truncate").
	Op     string
	Result Result
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed with exit code %d", e.Op, e.Result.ExitCode)
	if out := strings.TrimSpace(e.Result.Stderr); out != "" {
		msg += "\nstderr: " + out
	}
	if out := strings.TrimSpace(e.Result.Stdout); out != "" {
		msg += "\nstdout: " + out
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return ErrToolFailed
}

// BatchFailure records one failed item of an export or merge batch.
type BatchFailure struct {
	Script string
	Err    error
}

// BatchError is returned when one or more batch items failed.
type BatchError struct {
	Total    int
	Failures []BatchFailure
}

func (e *BatchError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Script)
	}
	return fmt.Sprintf("%d of %d scripts failed: %s", len(e.Failures), e.Total, strings.Join(names, ", "))
}

func (e *BatchError) Unwrap() error {
	return ErrBatchFailed
}
