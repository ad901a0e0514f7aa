package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/bcpstage/internal/storage"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// Defaults for path settings, relative to the working directory.
const (
	DefaultLogDir          = "logs"
	DefaultDownloadDir     = "downloads"
	DefaultLocalImportDir  = "Subida"
	DefaultScriptsDir      = "scripts"
	DefaultOutputDir       = "."
	DefaultScriptsMergeDir = "scripts_merge"
)

// Settings is the resolved configuration of one run.
// Precedence: environment (including .env files) > bcpstage.yaml > defaults.
// Command-line flags are applied by the caller on top.
type Settings struct {
	Connections map[string]bcpstage.ConnectionConfig

	BCPPath         string
	SQLCmdPath      string
	FieldTerminator string

	KeepIdentity  bool
	MaxErrors     int
	ErrorFile     string
	StagingSuffix string
	StagingPolicy bcpstage.StagingPolicy
	ConfirmToken  string

	Storage   storage.Config
	Prefix    string
	ObjectKey string

	LogDir          string
	DownloadDir     string
	LocalImportDir  string
	LocalImportFile string
	ScriptsDir      string
	OutputDir       string
	ScriptsMergeDir string
	ExportTimestamp bool

	Timeout time.Duration
}

// Resolve merges file (may be nil) with the variables visible through lookup.
// Malformed values are reported together.
func Resolve(file *FileConfig, lookup LookupFunc) (*Settings, error) {
	if file == nil {
		file = &FileConfig{}
	}
	var errs []string

	s := &Settings{
		Connections: make(map[string]bcpstage.ConnectionConfig, len(Environments)),

		BCPPath:         pick(lookup.get(EnvBCPPath), file.Tools.BCPPath, bcpstage.DefaultBCPPath),
		SQLCmdPath:      pick(lookup.get(EnvSQLCmdPath), file.Tools.SQLCmdPath, bcpstage.DefaultSQLCmdPath),
		FieldTerminator: pickRaw(lookup, EnvFieldTerminator, file.Import.FieldTerminator, bcpstage.DefaultFieldTerminator),

		ErrorFile:     pick(lookup.get(EnvErrorFile), file.Import.ErrorFile, ""),
		StagingSuffix: pick(lookup.get(EnvStagingSuffix), file.Import.StagingSuffix, bcpstage.DefaultStagingSuffix),
		ConfirmToken:  pick(lookup.get(EnvConfirmToken), file.Import.ConfirmToken, bcpstage.DefaultConfirmToken),

		Storage: storage.Config{
			Bucket:          pick(lookup.get(EnvS3Bucket), file.Storage.Bucket, ""),
			Region:          pick(lookup.get(EnvS3Region), file.Storage.Region, ""),
			AccessKeyID:     lookup.get(EnvS3AccessKeyID),
			SecretAccessKey: lookup.raw(EnvS3SecretAccessKey),
			Endpoint:        pick(lookup.get(EnvS3Endpoint), file.Storage.Endpoint, ""),
		},
		Prefix:    pick(lookup.get(EnvS3Prefix), file.Storage.Prefix, ""),
		ObjectKey: lookup.get(EnvS3ObjectKey),

		LogDir:          pick(lookup.get(EnvLogDir), file.LogDir, DefaultLogDir),
		DownloadDir:     pick(lookup.get(EnvDownloadDir), file.Import.DownloadDir, DefaultDownloadDir),
		LocalImportDir:  pick(lookup.get(EnvLocalImportDir), file.Import.LocalDir, DefaultLocalImportDir),
		LocalImportFile: lookup.get(EnvLocalImportFile),
		ScriptsDir:      pick(lookup.get(EnvScriptsDir), file.Export.ScriptsDir, DefaultScriptsDir),
		OutputDir:       pick(lookup.get(EnvOutputDir), file.Export.OutputDir, DefaultOutputDir),
		ScriptsMergeDir: pick(lookup.get(EnvScriptsMergeDir), file.Merge.ScriptsDir, DefaultScriptsMergeDir),
	}

	s.KeepIdentity = resolveBool(lookup.get(EnvKeepIdentity), file.Import.KeepIdentity, bcpstage.DefaultKeepIdentity)
	s.ExportTimestamp = resolveBool(lookup.get(EnvExportTimestamp), file.Export.Timestamp, true)

	s.MaxErrors = bcpstage.DefaultMaxErrors
	if file.Import.MaxErrors != nil {
		s.MaxErrors = *file.Import.MaxErrors
	}
	if raw := lookup.get(EnvMaxErrors); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer >= 0, got %q", EnvMaxErrors, raw))
		} else {
			s.MaxErrors = n
		}
	}
	if s.MaxErrors < 0 {
		errs = append(errs, fmt.Sprintf("%s must be an integer >= 0, got %d", EnvMaxErrors, s.MaxErrors))
	}

	policy, err := bcpstage.ParseStagingPolicy(pick(lookup.get(EnvStagingPolicy), file.Import.StagingPolicy, ""))
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", EnvStagingPolicy, err))
	}
	s.StagingPolicy = policy

	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Sprintf("invalid timeout %q in %s", file.Timeout, ConfigFileName))
		} else {
			s.Timeout = d
		}
	}

	for _, name := range Environments {
		conn, err := resolveConnection(name, file.Connections[name], lookup)
		if err != nil {
			errs = append(errs, err.Error())
		}
		s.Connections[name] = conn
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(errs, "; "), bcpstage.ErrInvalidConfig)
	}
	return s, nil
}

func resolveConnection(name string, fc ConnectionConfig, lookup LookupFunc) (bcpstage.ConnectionConfig, error) {
	prefix := envPrefixes[name]
	conn := bcpstage.ConnectionConfig{
		Label:             name,
		Server:            pick(lookup.get(prefix+"SERVER"), fc.Server, ""),
		Database:          pick(lookup.get(prefix+"DATABASE"), fc.Database, ""),
		Username:          pick(lookup.get(prefix+"USERNAME"), fc.Username, ""),
		Password:          lookup.raw(prefix + "PASSWORD"),
		Params:            fc.Params,
		AzureTenantID:     pick(lookup.get(EnvAzureTenantID), fc.AzureTenantID, ""),
		AzureClientID:     pick(lookup.get(EnvAzureClientID), fc.AzureClientID, ""),
		AzureClientSecret: lookup.raw(EnvAzureClientSecret),
	}

	method, err := ParseAuthMethod(pick(lookup.get(prefix+"AUTH_METHOD"), fc.AuthMethod, ""))
	if err != nil {
		return conn, fmt.Errorf("%sAUTH_METHOD: %v", prefix, err)
	}
	conn.AuthMethod = method
	return conn, nil
}

// ParseAuthMethod accepts "standard" (default) or "azure", ignoring case.
func ParseAuthMethod(s string) (bcpstage.AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "sql":
		return bcpstage.AuthMethodStandard, nil
	case "azure", "entra", "azure-entra-id":
		return bcpstage.AuthMethodAzureEntraID, nil
	default:
		return bcpstage.AuthMethodStandard, fmt.Errorf("unknown auth method %q (expected standard or azure)", s)
	}
}

// Connection returns the settings of environment name.
func (s *Settings) Connection(name string) (bcpstage.ConnectionConfig, error) {
	if _, err := EnvPrefix(name); err != nil {
		return bcpstage.ConnectionConfig{}, err
	}
	return s.Connections[name], nil
}

// RequireConnection reports every missing variable of environment name in one error.
func (s *Settings) RequireConnection(name string) error {
	prefix, err := EnvPrefix(name)
	if err != nil {
		return err
	}
	missing := s.Connections[name].Missing()
	if len(missing) == 0 {
		return nil
	}
	vars := make([]string, len(missing))
	for i, field := range missing {
		vars[i] = prefix + strings.ToUpper(field)
	}
	return fmt.Errorf("%s environment: missing %s: %w", name, strings.Join(vars, ", "), bcpstage.ErrInvalidConfig)
}

// ImportOptions are the command-line choices of one import.
type ImportOptions struct {
	Source bcpstage.ImportSource
	// Environment receives the load; defaults to staging.
	Environment string
	// File or Key select an explicit input, overriding LOCAL_IMPORT_FILE and S3_OBJECT_KEY.
	File   string
	Key    string
	Direct bool
}

// ImportConfig builds the import configuration. started stamps the default error file.
func (s *Settings) ImportConfig(opts ImportOptions, started time.Time) (bcpstage.ImportConfig, error) {
	env := opts.Environment
	if env == "" {
		env = Staging
	}
	if err := s.RequireConnection(env); err != nil {
		return bcpstage.ImportConfig{}, err
	}
	if opts.Source == bcpstage.ImportSourceS3 {
		if err := s.Storage.Validate(); err != nil {
			return bcpstage.ImportConfig{}, err
		}
	}

	errorFile := s.ErrorFile
	if errorFile == "" {
		errorFile = filepath.Join(s.LogDir, "import_errors_"+started.Format(bcpstage.LogTimestampLayout)+".err")
	}

	cfg := bcpstage.ImportConfig{
		Source:          opts.Source,
		LocalDir:        s.LocalImportDir,
		FileName:        pick(opts.File, s.LocalImportFile, ""),
		ObjectKey:       pick(opts.Key, s.ObjectKey, ""),
		Prefix:          s.Prefix,
		DownloadDir:     s.DownloadDir,
		Connection:      s.Connections[env],
		FieldTerminator: s.FieldTerminator,
		KeepIdentity:    s.KeepIdentity,
		MaxErrors:       s.MaxErrors,
		ErrorFile:       errorFile,
		StagingSuffix:   s.StagingSuffix,
		StagingPolicy:   s.StagingPolicy,
		Direct:          opts.Direct,
		Timeout:         s.Timeout,
	}
	return cfg, cfg.Validate()
}

// ExportConfig builds the export batch configuration for the source environment.
func (s *Settings) ExportConfig(scripts []string) (bcpstage.ExportConfig, error) {
	var errs []string
	if err := s.RequireConnection(Source); err != nil {
		errs = append(errs, err.Error())
	}
	if err := s.Storage.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if s.Prefix == "" {
		errs = append(errs, "missing "+EnvS3Prefix)
	}
	if len(errs) > 0 {
		return bcpstage.ExportConfig{}, fmt.Errorf("%s: %w", strings.Join(errs, "; "), bcpstage.ErrInvalidConfig)
	}

	cfg := bcpstage.ExportConfig{
		Connection:      s.Connections[Source],
		ScriptsDir:      s.ScriptsDir,
		Scripts:         scripts,
		OutputDir:       s.OutputDir,
		Prefix:          s.Prefix,
		FieldTerminator: s.FieldTerminator,
		Timestamp:       s.ExportTimestamp,
		Timeout:         s.Timeout,
	}
	return cfg, cfg.Validate()
}

// MergeConfig builds the merge batch configuration.
func (s *Settings) MergeConfig(scripts []string) (bcpstage.MergeConfig, error) {
	var errs []string
	for _, env := range []string{Staging, Destination} {
		if err := s.RequireConnection(env); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return bcpstage.MergeConfig{}, fmt.Errorf("%s: %w", strings.Join(errs, "; "), bcpstage.ErrInvalidConfig)
	}

	cfg := bcpstage.MergeConfig{
		Staging:     s.Connections[Staging],
		Destination: s.Connections[Destination],
		ScriptsDir:  s.ScriptsMergeDir,
		Scripts:     scripts,
		Timeout:     s.Timeout,
	}
	return cfg, cfg.Validate()
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// pickRaw is pick for values where surrounding whitespace is significant,
// such as a tab field terminator.
func pickRaw(lookup LookupFunc, key, fileValue, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return pick(fileValue, def)
}

func resolveBool(envValue string, fileValue *bool, def bool) bool {
	if fileValue != nil {
		def = *fileValue
	}
	return ParseBool(envValue, def)
}
