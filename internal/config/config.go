// Package config resolves bcpstage settings from the optional bcpstage.yaml
// file, .env files and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is read from the working directory when --config is not given.
const ConfigFileName = "bcpstage.yaml"

// ConnectionConfig is one environment in bcpstage.yaml. Passwords and client
// secrets are only read from the environment.
type ConnectionConfig struct {
	Server        string            `yaml:"server"`
	Database      string            `yaml:"database"`
	Username      string            `yaml:"username"`
	AuthMethod    string            `yaml:"auth_method,omitempty"`
	AzureTenantID string            `yaml:"azure_tenant_id,omitempty"`
	AzureClientID string            `yaml:"azure_client_id,omitempty"`
	Params        map[string]string `yaml:"params,omitempty"`
}

type ToolsConfig struct {
	BCPPath    string `yaml:"bcp_path"`
	SQLCmdPath string `yaml:"sqlcmd_path"`
}

type ImportConfig struct {
	FieldTerminator string `yaml:"field_terminator"`
	KeepIdentity    *bool  `yaml:"keep_identity"`
	MaxErrors       *int   `yaml:"max_errors"`
	ErrorFile       string `yaml:"error_file"`
	StagingSuffix   string `yaml:"staging_suffix"`
	StagingPolicy   string `yaml:"staging_policy"`
	ConfirmToken    string `yaml:"confirm_token"`
	LocalDir        string `yaml:"local_dir"`
	DownloadDir     string `yaml:"download_dir"`
}

type ExportConfig struct {
	ScriptsDir string `yaml:"scripts_dir"`
	OutputDir  string `yaml:"output_dir"`
	Timestamp  *bool  `yaml:"timestamp"`
}

type MergeConfig struct {
	ScriptsDir string `yaml:"scripts_dir"`
}

type StorageConfig struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// FileConfig mirrors bcpstage.yaml. Every field is optional.
type FileConfig struct {
	Connections map[string]ConnectionConfig `yaml:"connections"`
	Tools       ToolsConfig                 `yaml:"tools"`
	Import      ImportConfig                `yaml:"import"`
	Export      ExportConfig                `yaml:"export"`
	Merge       MergeConfig                 `yaml:"merge"`
	Storage     StorageConfig               `yaml:"storage"`
	LogDir      string                      `yaml:"log_dir"`
	Timeout     string                      `yaml:"timeout"`
}

// Load reads the config file at path.
func Load(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w: %w", path, err, bcpstage.ErrInvalidConfig)
	}
	return &cfg, nil
}
