package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// Environment variable names.
const (
	EnvBCPPath         = "BCP_PATH"
	EnvSQLCmdPath      = "SQLCMD_PATH"
	EnvFieldTerminator = "FIELD_TERMINATOR"

	EnvKeepIdentity  = "BCP_KEEP_IDENTITY"
	EnvMaxErrors     = "BCP_MAX_ERRORS"
	EnvErrorFile     = "BCP_ERROR_FILE"
	EnvStagingSuffix = "STAGING_SUFFIX"
	EnvStagingPolicy = "STAGING_POLICY"
	EnvConfirmToken  = "CONFIRM_TOKEN"

	EnvS3AccessKeyID     = "S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "S3_SECRET_ACCESS_KEY"
	EnvS3Region          = "S3_REGION"
	EnvS3Bucket          = "S3_BUCKET"
	EnvS3Prefix          = "S3_KEY"
	EnvS3ObjectKey       = "S3_OBJECT_KEY"
	EnvS3Endpoint        = "S3_ENDPOINT"

	EnvLogDir          = "LOG_DIR"
	EnvDownloadDir     = "DOWNLOAD_DIR"
	EnvLocalImportDir  = "LOCAL_IMPORT_DIR"
	EnvLocalImportFile = "LOCAL_IMPORT_FILE"
	EnvScriptsDir      = "SCRIPTS_DIR"
	EnvOutputDir       = "OUTPUT_DIR"
	EnvScriptsMergeDir = "SCRIPTS_MERGE_DIR"
	EnvExportTimestamp = "EXPORT_TIMESTAMP"

	EnvAzureTenantID     = "AZURE_TENANT_ID"
	EnvAzureClientID     = "AZURE_CLIENT_ID"
	EnvAzureClientSecret = "AZURE_CLIENT_SECRET"
)

// Environment names and the prefixes of their DB_* variables.
const (
	Source      = "source"
	Staging     = "staging"
	Destination = "destination"
)

var envPrefixes = map[string]string{
	Source:      "DB_",
	Staging:     "STAGE_DB_",
	Destination: "DEST_DB_",
}

// Environments lists the configurable environments in display order.
var Environments = []string{Source, Staging, Destination}

// EnvPrefix returns the variable prefix of environment name, e.g. "STAGE_DB_".
func EnvPrefix(name string) (string, error) {
	prefix, ok := envPrefixes[name]
	if !ok {
		return "", fmt.Errorf("unknown environment %q (expected %s): %w",
			name, strings.Join(Environments, ", "), bcpstage.ErrInvalidConfig)
	}
	return prefix, nil
}

// LookupFunc reads one variable. os.LookupEnv is the production source.
type LookupFunc func(key string) (string, bool)

// get returns the trimmed value of key, or "" when unset.
func (f LookupFunc) get(key string) string {
	v, _ := f(key)
	return strings.TrimSpace(v)
}

// raw returns the value of key unchanged. Secrets may legitimately start or
// end with whitespace.
func (f LookupFunc) raw(key string) string {
	v, _ := f(key)
	return v
}

// LoadEnvFiles loads ".env" from the working directory when present, then
// every explicit file. Variables already set in the process win. A missing
// explicit file is an error.
func LoadEnvFiles(files ...string) error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w: %w", err, bcpstage.ErrInvalidConfig)
		}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w: %w", f, err, bcpstage.ErrInvalidConfig)
		}
	}
	return nil
}

var (
	truthy = map[string]bool{"1": true, "true": true, "t": true, "yes": true, "y": true, "sim": true}
	falsy  = map[string]bool{"0": true, "false": true, "f": true, "no": true, "n": true, "nao": true}
)

// ParseBool interprets a flag value. Unrecognised or empty values yield def.
func ParseBool(value string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case truthy[v]:
		return true
	case falsy[v]:
		return false
	default:
		return def
	}
}
